package helpers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/middleware"
)

// DefaultLocale is used when the request does not name one.
const DefaultLocale = "en"

// GetCartKeyFromContext returns the cart key resolved by the identity
// middleware.
func GetCartKeyFromContext(c echo.Context) (string, error) {
	key, ok := c.Get(middleware.ContextCartKey).(string)
	if !ok || key == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "no cart identity on request")
	}
	return key, nil
}

// GetUserIDFromContext returns the authenticated user's id.
func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	sub, ok := c.Get(middleware.ContextUserID).(string)
	if !ok || sub == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}

// GetLocale returns the request locale from the ?locale query parameter.
func GetLocale(c echo.Context) string {
	if locale := c.QueryParam("locale"); locale != "" {
		return locale
	}
	return DefaultLocale
}
