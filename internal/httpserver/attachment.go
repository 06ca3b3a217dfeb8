package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/attachments"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/service"
)

// AttachmentHTTP resolves the task through the guard before touching the disk.
type AttachmentHTTP struct {
	Guard    *service.Guard
	Store    *attachments.Store
	Events   events.Publisher
	MaxBytes int64
}

func (h *AttachmentHTTP) publish(c echo.Context, typ string, projectID, taskID uint, filename string) {
	if h.Events == nil {
		return
	}
	ctx := c.Request().Context()
	ev := events.Event{
		Type:      typ,
		Username:  auth.Username(c),
		ProjectID: projectID,
		TaskID:    taskID,
		Filename:  filename,
		At:        time.Now().UTC(),
	}
	if err := h.Events.PublishEvent(ctx, events.TopicTask, fmt.Sprint(projectID), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}

func (h *AttachmentHTTP) ownedTask(c echo.Context) (uint, uint, error) {
	projectID, taskID, err := taskIDs(c)
	if err != nil {
		return 0, 0, err
	}
	t, err := h.Guard.ResolveOwnedTask(c.Request().Context(), projectID, taskID, auth.Username(c))
	if err != nil {
		return 0, 0, err
	}
	return t.ProjectID, t.ID, nil
}

func filenameParam(c echo.Context) (string, error) {
	name, err := url.PathUnescape(c.Param("filename"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid file name")
	}
	return name, nil
}

func (h *AttachmentHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "attachment.upload")

	projectID, taskID, err := h.ownedTask(c)
	if err != nil {
		return fail(l, "upload_failed", err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return fail(l, "upload_failed", attachments.ErrEmptyFile)
	}
	if h.MaxBytes > 0 && header.Size > h.MaxBytes {
		return fail(l, "upload_failed", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large"))
	}

	src, err := header.Open()
	if err != nil {
		return fail(l, "upload_failed", err)
	}
	defer src.Close()

	name, size, err := h.Store.Save(projectID, taskID, header.Filename, src)
	if err != nil {
		return fail(l, "upload_failed", err)
	}

	l.Info("attachment_uploaded", "project_id", projectID, "task_id", taskID, "filename", name, "bytes", size)
	h.publish(c, "attachment_uploaded", projectID, taskID, name)
	return c.JSON(http.StatusOK, echo.Map{
		"filename": name,
		"size":     size,
	})
}

func (h *AttachmentHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "attachment.list")

	projectID, taskID, err := h.ownedTask(c)
	if err != nil {
		return fail(l, "list_attachments_failed", err)
	}

	names, err := h.Store.List(projectID, taskID)
	if err != nil {
		return fail(l, "list_attachments_failed", err)
	}
	return c.JSON(http.StatusOK, names)
}

func (h *AttachmentHTTP) Download(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "attachment.download")

	projectID, taskID, err := h.ownedTask(c)
	if err != nil {
		return fail(l, "download_failed", err)
	}
	name, err := filenameParam(c)
	if err != nil {
		return fail(l, "download_failed", err)
	}

	f, info, err := h.Store.Open(projectID, taskID, name)
	if err != nil {
		return fail(l, "download_failed", err)
	}
	defer f.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", info.Name()))
	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), f)
	return nil
}

func (h *AttachmentHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "attachment.delete")

	projectID, taskID, err := h.ownedTask(c)
	if err != nil {
		return fail(l, "delete_attachment_failed", err)
	}
	name, err := filenameParam(c)
	if err != nil {
		return fail(l, "delete_attachment_failed", err)
	}

	if err := h.Store.Delete(projectID, taskID, name); err != nil {
		return fail(l, "delete_attachment_failed", err)
	}

	l.Info("attachment_deleted", "project_id", projectID, "task_id", taskID, "filename", name)
	h.publish(c, "attachment_deleted", projectID, taskID, name)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "file deleted",
		"filename": name,
	})
}
