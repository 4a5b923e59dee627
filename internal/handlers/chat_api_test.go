package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/middleware"
	"github.com/dmwangi/botdeck/internal/protocol"
)

type fakeDispatcher struct {
	frames   []protocol.Inbound
	actors   []domain.ChatUser
	failWith error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, actor domain.ChatUser, frame protocol.Inbound) error {
	if d.failWith != nil {
		return d.failWith
	}
	d.actors = append(d.actors, actor)
	d.frames = append(d.frames, frame)
	return nil
}

type fakeModeration struct {
	domain.ModerationRepository
	restrictions []domain.Restriction
	banned       []domain.BannedDevice
}

func (m *fakeModeration) ListRestrictions(ctx context.Context) ([]domain.Restriction, error) {
	return m.restrictions, nil
}

func (m *fakeModeration) BanDevice(ctx context.Context, b domain.BannedDevice) error {
	m.banned = append(m.banned, b)
	return nil
}

// asUser injects an authenticated identity the way the Identity middleware
// would.
func asUser(user domain.ChatUser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.UserContextKey, user)
			return next(c)
		}
	}
}

func newAPIEcho(h *ChatAPIHandler, user domain.ChatUser) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()

	g := e.Group("/api/v1/chat", asUser(user))
	g.PUT("/messages/:id", h.EditMessage)
	g.DELETE("/messages/:id", h.DeleteMessage)
	g.DELETE("/messages", h.DeleteMessages)
	g.POST("/users/:id/restrict", h.RestrictUser)
	g.DELETE("/users/:id/restrict", h.UnrestrictUser)
	g.GET("/restrictions", h.ListRestrictions)
	g.POST("/devices/ban", h.BanDevice)
	return e
}

func TestEditMessageDispatches(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewChatAPIHandler(dispatcher, nil, &fakeModeration{})
	admin := domain.ChatUser{ID: "admin", Role: domain.RoleAdmin}
	e := newAPIEcho(h, admin)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/chat/messages/m1",
		strings.NewReader(`{"text":"revised"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, dispatcher.frames, 1)
	frame := dispatcher.frames[0].(protocol.EditMessage)
	assert.Equal(t, "m1", frame.MessageID)
	assert.Equal(t, "revised", frame.Text)
	assert.Equal(t, "admin", dispatcher.actors[0].ID)
}

func TestEditMessageValidatesBody(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewChatAPIHandler(dispatcher, nil, &fakeModeration{})
	e := newAPIEcho(h, domain.ChatUser{ID: "alice", Role: domain.RoleUser})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/chat/messages/m1",
		strings.NewReader(`{"text":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatcher.frames)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"restricted", domain.ErrRestricted, http.StatusForbidden, "restricted"},
		{"store down", domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChatAPIHandler(&fakeDispatcher{failWith: tc.err}, nil, &fakeModeration{})
			e := newAPIEcho(h, domain.ChatUser{ID: "alice", Role: domain.RoleUser})

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/messages/m1", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantCode)
		})
	}
}

func TestBatchDeleteDispatches(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewChatAPIHandler(dispatcher, nil, &fakeModeration{})
	e := newAPIEcho(h, domain.ChatUser{ID: "admin", Role: domain.RoleAdmin})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/messages",
		strings.NewReader(`{"messageIds":["m1","m2"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, dispatcher.frames, 1)
	assert.Equal(t, []string{"m1", "m2"}, dispatcher.frames[0].(protocol.DeleteSelected).MessageIDs)
}

func TestRestrictEndpoints(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewChatAPIHandler(dispatcher, nil, &fakeModeration{})
	e := newAPIEcho(h, domain.ChatUser{ID: "admin", Role: domain.RoleAdmin})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/users/alice/restrict",
		strings.NewReader(`{"reason":"spam"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/chat/users/alice/restrict", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, dispatcher.frames, 2)
	restrict := dispatcher.frames[0].(protocol.RestrictUser)
	assert.Equal(t, "alice", restrict.TargetID)
	assert.Equal(t, "spam", restrict.Reason)
	assert.Equal(t, "alice", dispatcher.frames[1].(protocol.UnrestrictUser).TargetID)
}

func TestListRestrictionsRequiresModerator(t *testing.T) {
	moderation := &fakeModeration{restrictions: []domain.Restriction{{UserID: "alice"}}}
	h := NewChatAPIHandler(&fakeDispatcher{}, nil, moderation)

	e := newAPIEcho(h, domain.ChatUser{ID: "bob", Role: domain.RoleUser})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/restrictions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	e = newAPIEcho(h, domain.ChatUser{ID: "admin", Role: domain.RoleAdmin})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat/restrictions", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestBanDevice(t *testing.T) {
	moderation := &fakeModeration{}
	h := NewChatAPIHandler(&fakeDispatcher{}, nil, moderation)
	e := newAPIEcho(h, domain.ChatUser{ID: "admin", Role: domain.RoleSuperAdmin})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/devices/ban",
		strings.NewReader(`{"fingerprint":"fp-1","reason":"ban evasion","userIds":["mallory"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, moderation.banned, 1)
	assert.Equal(t, "fp-1", moderation.banned[0].Fingerprint)
	assert.Equal(t, "admin", moderation.banned[0].BannedBy)
}
