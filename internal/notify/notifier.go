// Package notify turns tagged chat messages into durable admin
// notifications. It sits on the far side of the message bus so a slow or
// failing notification store never touches the chat hot path.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/pubsub"
	"github.com/dmwangi/botdeck/internal/room"
)

// Notifier subscribes to tagged-message events and writes one admin
// notification per event.
type Notifier struct {
	store  domain.NotificationRepository
	sub    pubsub.Subscriber
	logger *slog.Logger
}

// New creates a Notifier over the given store and bus.
func New(store domain.NotificationRepository, sub pubsub.Subscriber) *Notifier {
	return &Notifier{
		store:  store,
		sub:    sub,
		logger: slog.Default().With("service", "admin-notifier"),
	}
}

// Start activates the subscription. Processing continues in the background
// until the context is canceled.
func (n *Notifier) Start(ctx context.Context) error {
	return n.sub.Subscribe(ctx, room.TopicMessageTagged, n.handle)
}

// handle persists one notification. Failures are logged and swallowed: the
// side channel is best-effort and must never propagate an error back into
// message delivery.
func (n *Notifier) handle(ctx context.Context, msg pubsub.Message) error {
	var message domain.ChatMessage
	if err := json.Unmarshal(msg.Payload, &message); err != nil {
		n.logger.Error("Discarding malformed tagged-message event", "error", err)
		return nil
	}

	notification := domain.AdminNotification{
		MessageID:  message.ID,
		AuthorID:   message.AuthorID,
		AuthorName: message.AuthorName,
		Body:       message.Body,
		Tags:       message.Tags,
		CreatedAt:  message.CreatedAt,
	}
	if err := n.store.CreateAdminNotification(ctx, notification); err != nil {
		n.logger.Error("Failed to persist admin notification",
			"messageID", message.ID, "error", err)
		return nil
	}

	n.logger.Info("Admin notification created",
		"messageID", message.ID, "tags", message.Tags)
	return nil
}
