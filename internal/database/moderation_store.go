package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/dmwangi/botdeck/internal/domain"
)

const (
	restrictionTable  = "chat_restriction"
	bannedDeviceTable = "banned_device"
)

// SurrealModerationStore implements domain.ModerationRepository on SurrealDB.
// Restrictions are keyed by user ID and device bans by fingerprint, so both
// checks are single-record lookups.
type SurrealModerationStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealModerationStore creates a new SurrealModerationStore.
func NewSurrealModerationStore(db *surrealdb.DB, ns, dbName string) *SurrealModerationStore {
	return &SurrealModerationStore{db: db, ns: ns, dbName: dbName}
}

func (s *SurrealModerationStore) use(ctx context.Context) error {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}
	return nil
}

// CreateRestriction records a posting block for a user. Restricting an
// already-restricted user refreshes the record.
func (s *SurrealModerationStore) CreateRestriction(ctx context.Context, r domain.Restriction) error {
	if err := s.use(ctx); err != nil {
		return err
	}

	query := "UPSERT type::thing($table, $userId) CONTENT $restriction RETURN NONE"
	params := map[string]any{
		"table":       restrictionTable,
		"userId":      r.UserID,
		"restriction": r,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to create restriction: %w", err)
	}
	return nil
}

// DeleteRestriction lifts a user's posting block.
func (s *SurrealModerationStore) DeleteRestriction(ctx context.Context, userID string) error {
	if err := s.use(ctx); err != nil {
		return err
	}

	query := "DELETE type::thing($table, $userId)"
	params := map[string]any{
		"table":  restrictionTable,
		"userId": userID,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to delete restriction: %w", err)
	}
	return nil
}

// IsRestricted reports whether a restriction record exists for the user.
func (s *SurrealModerationStore) IsRestricted(ctx context.Context, userID string) (bool, error) {
	if err := s.use(ctx); err != nil {
		return false, err
	}

	query := "SELECT * FROM type::thing($table, $userId)"
	params := map[string]any{
		"table":  restrictionTable,
		"userId": userID,
	}
	r, err := QueryOne[domain.Restriction](ctx, s.db, query, params)
	if err != nil {
		return false, fmt.Errorf("failed to check restriction: %w", err)
	}
	return r != nil, nil
}

// ListRestrictions returns all active restrictions, newest first.
func (s *SurrealModerationStore) ListRestrictions(ctx context.Context) ([]domain.Restriction, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := "SELECT * FROM type::table($table) ORDER BY createdAt DESC"
	params := map[string]any{"table": restrictionTable}
	restrictions, err := Query[domain.Restriction](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list restrictions: %w", err)
	}
	return restrictions, nil
}

// BanDevice records a durable device ban.
func (s *SurrealModerationStore) BanDevice(ctx context.Context, b domain.BannedDevice) error {
	if err := s.use(ctx); err != nil {
		return err
	}

	query := "UPSERT type::thing($table, $fingerprint) CONTENT $ban RETURN NONE"
	params := map[string]any{
		"table":       bannedDeviceTable,
		"fingerprint": b.Fingerprint,
		"ban":         b,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to ban device: %w", err)
	}
	return nil
}

// IsDeviceBanned reports whether a ban record exists for the fingerprint.
func (s *SurrealModerationStore) IsDeviceBanned(ctx context.Context, fingerprint string) (bool, error) {
	if err := s.use(ctx); err != nil {
		return false, err
	}

	query := "SELECT * FROM type::thing($table, $fingerprint)"
	params := map[string]any{
		"table":       bannedDeviceTable,
		"fingerprint": fingerprint,
	}
	b, err := QueryOne[domain.BannedDevice](ctx, s.db, query, params)
	if err != nil {
		return false, fmt.Errorf("failed to check device ban: %w", err)
	}
	return b != nil, nil
}
