package middleware

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/dmwangi/botdeck/internal/domain"
)

// UserContextKey is where the authenticated chat identity is stored on the
// echo context.
const UserContextKey = "chatUser"

// SessionName is the cookie session established by the platform's auth flow.
const SessionName = "session"

// Identity builds a middleware that resolves the platform session into a
// chat identity. The session is written by the upstream auth subsystem; this
// layer only reads it. Requests without a valid identity get 401.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "not_authenticated",
					"message": "invalid session",
				})
			}

			userID, _ := sess.Values["userID"].(string)
			displayName, _ := sess.Values["displayName"].(string)
			role, _ := sess.Values["role"].(string)
			if userID == "" || !domain.Role(role).Valid() {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "not_authenticated",
					"message": "no authenticated user in session",
				})
			}

			c.Set(UserContextKey, domain.ChatUser{
				ID:          userID,
				DisplayName: displayName,
				Role:        domain.Role(role),
			})
			return next(c)
		}
	}
}

// CurrentUser returns the identity placed on the context by Identity. The
// second result is false when the route was not wrapped.
func CurrentUser(c echo.Context) (domain.ChatUser, bool) {
	user, ok := c.Get(UserContextKey).(domain.ChatUser)
	return user, ok
}
