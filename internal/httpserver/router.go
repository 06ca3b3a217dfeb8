package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/taskboard/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/taskboard/internal/middleware/logging"
	"github.com/Skotchmaster/taskboard/internal/middleware/metrics"
	"github.com/Skotchmaster/taskboard/internal/validator"
)

// multipart framing on top of the largest accepted file
const bodySlack = 1 << 20

type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	AuthHandler       *AuthHTTP
	ProjectHandler    *ProjectHTTP
	TaskHandler       *TaskHTTP
	AttachmentHandler *AttachmentHTTP

	Auth *auth.BearerAuth

	MaxUploadBytes int64

	// Ready reports whether dependencies (the database) are reachable.
	Ready func(ctx context.Context) error
}

func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(loggingmw.RequestLogger(d.Logger))
	if d.MaxUploadBytes > 0 {
		e.Use(middleware.BodyLimit(strconv.FormatInt(d.MaxUploadBytes+bodySlack, 10) + "B"))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/signin", d.AuthHandler.SignIn)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/logout", d.AuthHandler.LogOut, d.Auth.RequireAuth)

	projects := api.Group("/projects", d.Auth.RequireAuth)
	projects.GET("", d.ProjectHandler.List)
	projects.POST("", d.ProjectHandler.Create)
	projects.GET("/:id", d.ProjectHandler.Get)
	projects.PUT("/:id", d.ProjectHandler.Update)
	projects.DELETE("/:id", d.ProjectHandler.Delete)
	projects.GET("/:id/progress", d.ProjectHandler.Progress)

	projects.GET("/:id/tasks", d.TaskHandler.List)
	projects.POST("/:id/tasks", d.TaskHandler.Create)
	projects.PUT("/:id/tasks/:taskId", d.TaskHandler.Update)
	projects.DELETE("/:id/tasks/:taskId", d.TaskHandler.Delete)
	projects.PATCH("/:id/tasks/:taskId/toggle", d.TaskHandler.Toggle)
	projects.PATCH("/:id/tasks/:taskId/status", d.TaskHandler.CycleStatus)

	projects.POST("/:id/tasks/:taskId/attachments", d.AttachmentHandler.Upload)
	projects.GET("/:id/tasks/:taskId/attachments", d.AttachmentHandler.List)
	projects.GET("/:id/tasks/:taskId/attachments/:filename", d.AttachmentHandler.Download)
	projects.DELETE("/:id/tasks/:taskId/attachments/:filename", d.AttachmentHandler.Delete)
}
