package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
	"github.com/Skotchmaster/taskboard/internal/util"
)

type ProjectHTTP struct {
	Svc *service.ProjectService
}

func projectPatch(req transport.ProjectRequest) service.ProjectPatch {
	return service.ProjectPatch{
		Title:       req.ResolvedTitle(),
		Description: req.Description,
		Color:       req.Color,
	}
}

func (h *ProjectHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	page, offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, auth.Username(c), offset, limit)
	if err != nil {
		return fail(l, "list_projects_error", err)
	}

	return c.JSON(http.StatusOK, transport.ProjectPage{
		Data: transport.ProjectsFromModels(items),
		Meta: util.NewMeta(page, offset, limit, total),
	})
}

func (h *ProjectHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.get")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "get_project_failed", err)
	}

	p, err := h.Svc.Get(ctx, id, auth.Username(c))
	if err != nil {
		return fail(l, "get_project_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ProjectFromModel(p))
}

func (h *ProjectHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.create")

	var req transport.ProjectRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "project_create_error", err)
	}

	p, err := h.Svc.Create(ctx, auth.Username(c), projectPatch(req))
	if err != nil {
		return fail(l, "project_create_error", err)
	}

	l.Info("project_created", "project_id", p.ID)
	return c.JSON(http.StatusOK, transport.ProjectFromModel(p))
}

func (h *ProjectHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.update")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "project_update_error", err)
	}
	var req transport.ProjectRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "project_update_error", err)
	}

	p, err := h.Svc.Update(ctx, id, auth.Username(c), projectPatch(req))
	if err != nil {
		return fail(l, "project_update_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProjectFromModel(p))
}

func (h *ProjectHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "project_delete_error", err)
	}
	if err := h.Svc.Delete(ctx, id, auth.Username(c)); err != nil {
		return fail(l, "project_delete_error", err)
	}

	l.Info("project_deleted", "project_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHTTP) Progress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.progress")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "project_progress_error", err)
	}

	p, _, err := h.Svc.Progress(ctx, id, auth.Username(c))
	if err != nil {
		return fail(l, "project_progress_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProjectFromModel(p))
}
