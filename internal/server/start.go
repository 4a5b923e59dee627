package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmwangi/botdeck/internal/pubsub"
	"github.com/dmwangi/botdeck/internal/room"
)

// Start runs the coordinator, the notifier and the HTTP server, then blocks
// until an interrupt and shuts everything down in order.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.coordinator.Run(ctx)
	if err := s.notifier.Start(ctx); err != nil {
		slog.Error("Failed to start admin notifier", "error", err)
		os.Exit(1)
	}

	// Presence lifecycle events feed the audit log.
	for _, topic := range []string{room.TopicClientConnected, room.TopicClientDisconnected} {
		if err := s.bus.Subscribe(ctx, topic, func(ctx context.Context, msg pubsub.Message) error {
			slog.Info("Presence event", "topic", msg.Topic, "userID", msg.UserID)
			return nil
		}); err != nil {
			slog.Error("Failed to subscribe to presence events", "topic", topic, "error", err)
			os.Exit(1)
		}
	}

	go func() {
		if err := s.E.Start(s.Cfg.Addr); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop accepting requests first, then drain the room and the bus.
	if err := s.E.Shutdown(shutdownCtx); err != nil {
		s.E.Logger.Fatal(err)
	}
	cancel()
	if err := s.bus.Close(); err != nil {
		slog.Error("Failed to close message bus", "error", err)
	}
	s.DB.Close(shutdownCtx)
}
