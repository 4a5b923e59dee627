package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmwangi/botdeck/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	identity := middleware.Identity()
	rateLimiter := middleware.RateLimiter()

	// The WebSocket authenticates through its join frame, not the session.
	s.E.GET("/ws/chat", s.coordinator.Handler())

	// HTTP mirror of the chat protocol for bots and the admin dashboard.
	api := s.E.Group("/api/v1/chat", middleware.Logger, identity)
	api.GET("/messages", s.chatAPI.ListMessages)
	api.PUT("/messages/:id", s.chatAPI.EditMessage)
	api.DELETE("/messages/:id", s.chatAPI.DeleteMessage)
	api.DELETE("/messages", s.chatAPI.DeleteMessages)
	api.POST("/users/:id/restrict", s.chatAPI.RestrictUser, rateLimiter)
	api.DELETE("/users/:id/restrict", s.chatAPI.UnrestrictUser, rateLimiter)
	api.GET("/restrictions", s.chatAPI.ListRestrictions)
	api.POST("/devices/ban", s.chatAPI.BanDevice, rateLimiter)

	// Attachment blobs.
	s.E.POST("/uploads", s.uploads.Upload, middleware.Logger, identity, rateLimiter)
	s.E.GET("/uploads/:name", s.uploads.Download)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
