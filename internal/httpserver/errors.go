package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/attachments"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/validator"
)

// statusFor maps domain errors onto an HTTP status and a client message.
func statusFor(err error) (int, string) {
	var verr *validator.ValidationError
	var herr *echo.HTTPError

	switch {
	case errors.As(err, &herr):
		msg, ok := herr.Message.(string)
		if !ok {
			msg = http.StatusText(herr.Code)
		}
		return herr.Code, msg
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, attachments.ErrPathTraversal):
		return http.StatusBadRequest, "invalid file path"
	case errors.Is(err, attachments.ErrExtensionNotAllowed):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, attachments.ErrEmptyFile):
		return http.StatusBadRequest, "file is missing or empty"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, service.ErrInvalidTokenType):
		return http.StatusUnauthorized, "invalid token type"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, service.ErrStaleToken):
		return http.StatusUnauthorized, "refresh token is no longer valid"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, "user not found"
	case errors.Is(err, service.ErrNotFoundOrUnauthorized):
		return http.StatusNotFound, "not found"
	case errors.Is(err, attachments.ErrNotFound):
		return http.StatusNotFound, "file not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "user already exist"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs err under event and turns it into the response error.
func fail(l *slog.Logger, event string, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(dst)
}
