package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/middleware"
	"github.com/dmwangi/botdeck/internal/protocol"
)

// Dispatcher funnels moderation and message operations through the room's
// single-writer path so HTTP-originated mutations share the WebSocket total
// order.
type Dispatcher interface {
	Dispatch(ctx context.Context, actor domain.ChatUser, frame protocol.Inbound) error
}

// ChatAPIHandler exposes the room's operations over plain HTTP for bot
// integrations and the admin dashboard. Reads go straight to the stores;
// writes go through the Dispatcher.
type ChatAPIHandler struct {
	dispatcher Dispatcher
	messages   domain.MessageRepository
	moderation domain.ModerationRepository
}

// NewChatAPIHandler creates the HTTP mirror of the chat protocol.
func NewChatAPIHandler(dispatcher Dispatcher, messages domain.MessageRepository, moderation domain.ModerationRepository) *ChatAPIHandler {
	return &ChatAPIHandler{
		dispatcher: dispatcher,
		messages:   messages,
		moderation: moderation,
	}
}

// ListMessages handles GET /messages.
func (h *ChatAPIHandler) ListMessages(c echo.Context) error {
	messages, err := h.messages.Recent(c.Request().Context(), 50)
	if err != nil {
		return writeError(c, domain.ErrStoreUnavailable)
	}
	return c.JSON(http.StatusOK, MessagesResponse{Messages: messages})
}

// EditMessage handles PUT /messages/:id.
func (h *ChatAPIHandler) EditMessage(c echo.Context) error {
	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}

	err := h.dispatcher.Dispatch(c.Request().Context(), actor, protocol.EditMessage{
		MessageID: c.Param("id"),
		Text:      req.Text,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMessage handles DELETE /messages/:id.
func (h *ChatAPIHandler) DeleteMessage(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}

	err := h.dispatcher.Dispatch(c.Request().Context(), actor, protocol.DeleteMessage{
		MessageID: c.Param("id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMessages handles the batch delete endpoint.
func (h *ChatAPIHandler) DeleteMessages(c echo.Context) error {
	var req BatchDeleteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}

	err := h.dispatcher.Dispatch(c.Request().Context(), actor, protocol.DeleteSelected{
		MessageIDs: req.MessageIDs,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RestrictUser handles POST /users/:id/restrict.
func (h *ChatAPIHandler) RestrictUser(c echo.Context) error {
	var req RestrictRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}

	err := h.dispatcher.Dispatch(c.Request().Context(), actor, protocol.RestrictUser{
		TargetID: c.Param("id"),
		Reason:   req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnrestrictUser handles DELETE /users/:id/restrict.
func (h *ChatAPIHandler) UnrestrictUser(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}

	err := h.dispatcher.Dispatch(c.Request().Context(), actor, protocol.UnrestrictUser{
		TargetID: c.Param("id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRestrictions handles GET /restrictions.
func (h *ChatAPIHandler) ListRestrictions(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}
	if !actor.Role.IsModerator() {
		return writeError(c, domain.ErrForbidden)
	}

	restrictions, err := h.moderation.ListRestrictions(c.Request().Context())
	if err != nil {
		return writeError(c, domain.ErrStoreUnavailable)
	}
	return c.JSON(http.StatusOK, RestrictionsResponse{Restrictions: restrictions})
}

// BanDevice handles POST /devices/ban. Bans are enforced at join time, so
// the record is written directly; no live-room mutation is needed.
func (h *ChatAPIHandler) BanDevice(c echo.Context) error {
	var req BanDeviceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, domain.ErrValidationFailed)
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, domain.ErrUnauthenticated)
	}
	if !actor.Role.IsModerator() {
		return writeError(c, domain.ErrForbidden)
	}

	ban := domain.BannedDevice{
		Fingerprint: req.Fingerprint,
		Reason:      req.Reason,
		BannedBy:    actor.ID,
		UserIDs:     req.UserIDs,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.moderation.BanDevice(c.Request().Context(), ban); err != nil {
		return writeError(c, domain.ErrStoreUnavailable)
	}
	return c.NoContent(http.StatusCreated)
}

// writeError maps a domain error to its HTTP shape, reusing the protocol's
// wire codes so WebSocket and HTTP clients see the same vocabulary.
func writeError(c echo.Context, err error) error {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrRestricted), errors.Is(err, domain.ErrDeviceBanned):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, ErrorResponse{
		Code:    string(protocol.CodeForError(err)),
		Message: err.Error(),
	})
}
