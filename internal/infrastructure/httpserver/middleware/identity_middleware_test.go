package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/middleware"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return c, handler(c)
}

func TestResolveIdentity_BearerToken(t *testing.T) {
	m := middleware.NewIdentityMiddleware(testSecret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42"))

	c, err := run(t, m.ResolveIdentity(), req)
	require.NoError(t, err)
	require.Equal(t, "cart:user:user-42", c.Get(middleware.ContextCartKey))
	require.Equal(t, "user-42", c.Get(middleware.ContextUserID))
}

func TestResolveIdentity_SessionHeader(t *testing.T) {
	m := middleware.NewIdentityMiddleware(testSecret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.SessionHeader, "s-99")

	c, err := run(t, m.ResolveIdentity(), req)
	require.NoError(t, err)
	require.Equal(t, "cart:session:s-99", c.Get(middleware.ContextCartKey))
	require.Nil(t, c.Get(middleware.ContextUserID))
}

func TestResolveIdentity_NoCredentials(t *testing.T) {
	m := middleware.NewIdentityMiddleware(testSecret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := run(t, m.ResolveIdentity(), req)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestResolveIdentity_BadSignature(t *testing.T) {
	m := middleware.NewIdentityMiddleware("other-secret", nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42"))

	_, err := run(t, m.ResolveIdentity(), req)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireUser_RejectsSessionOnly(t *testing.T) {
	m := middleware.NewIdentityMiddleware(testSecret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.SessionHeader, "s-99")

	_, err := run(t, m.RequireUser(), req)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
