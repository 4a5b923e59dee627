package domain

import (
	"context"
	"time"
)

// Restriction is a durable per-user posting block. Its presence means the
// user cannot post; it is distinct from a full account ban and survives
// reconnects and process restarts.
type Restriction struct {
	UserID       string    `json:"userId"`
	RestrictedBy string    `json:"restrictedBy"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BannedDevice is a durable ban keyed by a client device fingerprint rather
// than a user identity. It is enforced at join time only.
type BannedDevice struct {
	Fingerprint string    `json:"fingerprint"`
	Reason      string    `json:"reason,omitempty"`
	BannedBy    string    `json:"bannedBy"`
	UserIDs     []string  `json:"userIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AdminNotification is the durable record emitted when a tagged message from
// a non-moderator needs moderator attention. Writing it is best-effort
// relative to the chat protocol.
type AdminNotification struct {
	ID         string    `json:"id,omitempty"`
	MessageID  string    `json:"messageId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ModerationRepository is the contract for durable restriction and device-ban
// records.
type ModerationRepository interface {
	CreateRestriction(ctx context.Context, r Restriction) error
	DeleteRestriction(ctx context.Context, userID string) error
	IsRestricted(ctx context.Context, userID string) (bool, error)
	ListRestrictions(ctx context.Context) ([]Restriction, error)

	BanDevice(ctx context.Context, b BannedDevice) error
	IsDeviceBanned(ctx context.Context, fingerprint string) (bool, error)
}

// NotificationRepository persists admin notifications.
type NotificationRepository interface {
	CreateAdminNotification(ctx context.Context, n AdminNotification) error
}
