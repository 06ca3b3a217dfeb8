package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/middleware/metrics"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Metrics *metrics.Metrics
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.Credentials
	if err := bindValid(c, &req); err != nil {
		return fail(l, "register_error", err)
	}

	if err := h.Svc.Register(ctx, req.Username, req.Password); err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_successful", "username", req.Username)
	return c.JSON(http.StatusOK, echo.Map{
		"username": req.Username,
	})
}

func (h *AuthHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req transport.Credentials
	if err := bindValid(c, &req); err != nil {
		h.Metrics.AuthOutcome("signin", err)
		return fail(l, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	h.Metrics.AuthOutcome("signin", err)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_successful", "username", req.Username)
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw, ok := auth.BearerToken(c)
	if !ok {
		err := echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
		h.Metrics.AuthOutcome("refresh", err)
		return fail(l, "refresh_failed", err)
	}

	res, err := h.Svc.Refresh(ctx, raw)
	h.Metrics.AuthOutcome("refresh", err)
	if err != nil {
		return fail(l, "refresh_failed", err)
	}

	l.Info("refresh_successful")
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

// LogOut sits behind RequireAuth, so the bearer token is a valid access token.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	raw, _ := auth.BearerToken(c)
	err := h.Svc.LogOut(ctx, raw)
	h.Metrics.AuthOutcome("logout", err)
	if err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
