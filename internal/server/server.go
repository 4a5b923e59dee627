package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/surrealdb/surrealdb.go"

	"github.com/dmwangi/botdeck/internal/config"
	"github.com/dmwangi/botdeck/internal/database"
	"github.com/dmwangi/botdeck/internal/handlers"
	"github.com/dmwangi/botdeck/internal/logging"
	"github.com/dmwangi/botdeck/internal/notify"
	"github.com/dmwangi/botdeck/internal/pubsub"
	"github.com/dmwangi/botdeck/internal/room"
	"github.com/dmwangi/botdeck/internal/storage"
)

// uploadMimeTypes is what the chat UI is allowed to attach.
var uploadMimeTypes = []string{
	"image/png", "image/jpeg", "image/gif", "image/webp",
	"application/pdf", "text/plain",
}

const maxUploadBytes = 10 << 20

// Server holds the dependencies for the chat service.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	bus         *pubsub.WatermillBridge
	coordinator *room.Coordinator
	notifier    *notify.Notifier

	chatAPI *handlers.ChatAPIHandler
	uploads *handlers.UploadHandler
}

// New wires the full service: config, logger, database, stores, bus, room
// coordinator and HTTP handlers.
func New() *Server {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	messageStore := database.NewSurrealMessageStore(db, cfg.DBNs, cfg.DBDb)
	moderationStore := database.NewSurrealModerationStore(db, cfg.DBNs, cfg.DBDb)
	notificationStore := database.NewSurrealNotificationStore(db, cfg.DBNs, cfg.DBDb)

	bus := pubsub.NewWatermillBridge()
	coordinator := room.NewCoordinator(messageStore, moderationStore, bus,
		room.WithHistoryLimit(cfg.HistoryLimit))
	notifier := notify.New(notificationStore, bus)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Session middleware carries the identity written by the platform's
	// auth flow; the chat API reads it, never writes it.
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))

	return &Server{
		E:           e,
		DB:          db,
		Cfg:         cfg,
		bus:         bus,
		coordinator: coordinator,
		notifier:    notifier,
		chatAPI:     handlers.NewChatAPIHandler(coordinator, messageStore, moderationStore),
		uploads:     handlers.NewUploadHandler(storage.NewDiskStore(cfg.UploadDir), maxUploadBytes, uploadMimeTypes),
	}
}

// Coordinator exposes the room coordinator, useful for tests.
func (s *Server) Coordinator() *room.Coordinator {
	return s.coordinator
}
