package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Context keys set by the identity middleware.
const (
	ContextCartKey   = "cart_key"
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
)

// SessionHeader carries the anonymous session identifier for guests.
const SessionHeader = "X-Session-ID"

// IdentityMiddleware resolves who owns the cart for this request. A valid
// bearer token binds the request to cart:user:{sub}; otherwise the session
// header binds it to cart:session:{id}.
type IdentityMiddleware struct {
	secret []byte
	logger *logrus.Logger
}

func NewIdentityMiddleware(jwtSecret string, logger *logrus.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{secret: []byte(jwtSecret), logger: logger}
}

// ResolveIdentity attaches the cart key (and user id when authenticated) to
// the request context. Requests with neither credential are rejected.
func (m *IdentityMiddleware) ResolveIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sub, ok := m.subjectFromToken(c); ok {
				c.Set(ContextUserID, sub)
				c.Set(ContextCartKey, "cart:user:"+sub)
				return next(c)
			}

			if sessionID := c.Request().Header.Get(SessionHeader); sessionID != "" {
				c.Set(ContextSessionID, sessionID)
				c.Set(ContextCartKey, "cart:session:"+sessionID)
				return next(c)
			}

			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token or "+SessionHeader+" header")
		}
	}
}

// RequireUser rejects requests that are not backed by a valid bearer token.
func (m *IdentityMiddleware) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, ok := m.subjectFromToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			c.Set(ContextUserID, sub)
			c.Set(ContextCartKey, "cart:user:"+sub)
			return next(c)
		}
	}
}

func (m *IdentityMiddleware) subjectFromToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		if err != nil && m.logger != nil {
			m.logger.WithError(err).Debug("rejected bearer token")
		}
		return "", false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
