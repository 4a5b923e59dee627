package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmwangi/botdeck/internal/domain"
)

func newSessionEcho(t *testing.T) (*echo.Echo, *sessions.CookieStore) {
	t.Helper()
	e := echo.New()
	store := sessions.NewCookieStore([]byte("test-secret"))
	e.Use(session.Middleware(store))
	return e, store
}

func TestIdentityResolvesSession(t *testing.T) {
	e, store := newSessionEcho(t)

	e.GET("/me", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, user)
	}, Identity())

	// Bake a session cookie the way the auth flow would.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	sess, err := store.New(req, SessionName)
	require.NoError(t, err)
	sess.Values["userID"] = "alice"
	sess.Values["displayName"] = "Alice"
	sess.Values["role"] = string(domain.RoleAdmin)
	require.NoError(t, sess.Save(req, rec))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Cookie", rec.Header().Get("Set-Cookie"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alice"`)
}

func TestIdentityRejectsAnonymous(t *testing.T) {
	e, _ := newSessionEcho(t)
	e.GET("/me", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, Identity())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_authenticated")
}
