package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

func taskPatch(req transport.TaskRequest) (service.TaskPatch, error) {
	patch := service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Section:     req.Section,
		Completed:   req.Completed,
		Status:      req.Status,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
			return patch, nil
		}
		d, err := time.Parse(transport.DateLayout, *req.DueDate)
		if err != nil {
			return patch, fmt.Errorf("dueDate must be YYYY-MM-DD: %w", service.ErrValidation)
		}
		patch.DueDate = &d
	}
	return patch, nil
}

func taskIDs(c echo.Context) (uint, uint, error) {
	projectID, err := parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	taskID, err := parseID(c, "taskId")
	if err != nil {
		return 0, 0, err
	}
	return projectID, taskID, nil
}

func (h *TaskHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.list")

	projectID, err := parseID(c, "id")
	if err != nil {
		return fail(l, "list_tasks_error", err)
	}

	tasks, err := h.Svc.List(ctx, projectID, auth.Username(c))
	if err != nil {
		return fail(l, "list_tasks_error", err)
	}
	return c.JSON(http.StatusOK, transport.TasksFromModels(tasks))
}

func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.create")

	projectID, err := parseID(c, "id")
	if err != nil {
		return fail(l, "task_create_error", err)
	}
	var req transport.TaskRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "task_create_error", err)
	}
	patch, err := taskPatch(req)
	if err != nil {
		return fail(l, "task_create_error", err)
	}

	t, err := h.Svc.Create(ctx, projectID, auth.Username(c), patch)
	if err != nil {
		return fail(l, "task_create_error", err)
	}

	l.Info("task_created", "project_id", projectID, "task_id", t.ID)
	return c.JSON(http.StatusOK, transport.TaskFromModel(t))
}

// Update routes a request that only carries dueDate through UpdateDueDate.
func (h *TaskHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.update")

	projectID, taskID, err := taskIDs(c)
	if err != nil {
		return fail(l, "task_update_error", err)
	}
	var req transport.TaskRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "task_update_error", err)
	}
	patch, err := taskPatch(req)
	if err != nil {
		return fail(l, "task_update_error", err)
	}

	var t *models.Task
	if req.OnlyDueDate() {
		t, err = h.Svc.UpdateDueDate(ctx, projectID, taskID, auth.Username(c), patch.DueDate)
	} else {
		t, err = h.Svc.Update(ctx, projectID, taskID, auth.Username(c), patch)
	}
	if err != nil {
		return fail(l, "task_update_error", err)
	}
	return c.JSON(http.StatusOK, transport.TaskFromModel(t))
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.delete")

	projectID, taskID, err := taskIDs(c)
	if err != nil {
		return fail(l, "task_delete_error", err)
	}
	if err := h.Svc.Delete(ctx, projectID, taskID, auth.Username(c)); err != nil {
		return fail(l, "task_delete_error", err)
	}

	l.Info("task_deleted", "project_id", projectID, "task_id", taskID)
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHTTP) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.toggle")

	projectID, taskID, err := taskIDs(c)
	if err != nil {
		return fail(l, "task_toggle_error", err)
	}
	t, err := h.Svc.Toggle(ctx, projectID, taskID, auth.Username(c))
	if err != nil {
		return fail(l, "task_toggle_error", err)
	}
	return c.JSON(http.StatusOK, transport.TaskFromModel(t))
}

func (h *TaskHTTP) CycleStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.status")

	projectID, taskID, err := taskIDs(c)
	if err != nil {
		return fail(l, "task_status_error", err)
	}
	t, err := h.Svc.CycleStatus(ctx, projectID, taskID, auth.Username(c))
	if err != nil {
		return fail(l, "task_status_error", err)
	}
	return c.JSON(http.StatusOK, transport.TaskFromModel(t))
}
