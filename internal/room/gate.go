package room

import (
	"context"

	"github.com/dmwangi/botdeck/internal/domain"
)

// Gate decides whether connections may join and whether joined users may
// post. The device-ban check runs only at join time; a ban landing mid-session
// takes effect on the next reconnect, which keeps the posting path free of
// per-message store reads.
type Gate struct {
	moderation domain.ModerationRepository
}

// NewGate creates a moderation gate over the durable ban records.
func NewGate(moderation domain.ModerationRepository) *Gate {
	return &Gate{moderation: moderation}
}

// CanJoin reports whether a device fingerprint is allowed to join.
func (g *Gate) CanJoin(ctx context.Context, fingerprint string) (bool, error) {
	banned, err := g.moderation.IsDeviceBanned(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	return !banned, nil
}

// CanPost reports whether the presence entry may post messages.
func (g *Gate) CanPost(entry *Entry) bool {
	return entry != nil && !entry.User.Restricted
}
