package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

const UsernameKey = "username"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Username returns the authenticated subject set by RequireAuth.
func Username(c echo.Context) string {
	u, _ := c.Get(UsernameKey).(string)
	return u
}

type BearerAuth struct {
	Tokens *tokens.Codec
}

func NewBearerAuth(codec *tokens.Codec) *BearerAuth {
	return &BearerAuth{Tokens: codec}
}

// RequireAuth admits requests carrying a valid access token.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := BearerToken(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Tokens.ParseKind(raw, tokens.KindAccess)
		if err != nil {
			logging.FromContext(c.Request().Context()).Warn("auth_rejected", "reason", err.Error())
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(UsernameKey, claims.Subject)
		l := logging.FromContext(c.Request().Context()).With("username", claims.Subject)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

		return next(c)
	}
}
