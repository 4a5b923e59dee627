package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/dmwangi/botdeck/internal/domain"
)

const notificationTable = "admin_notification"

// SurrealNotificationStore implements domain.NotificationRepository on
// SurrealDB.
type SurrealNotificationStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealNotificationStore creates a new SurrealNotificationStore.
func NewSurrealNotificationStore(db *surrealdb.DB, ns, dbName string) *SurrealNotificationStore {
	return &SurrealNotificationStore{db: db, ns: ns, dbName: dbName}
}

// CreateAdminNotification persists one moderator-attention record.
func (s *SurrealNotificationStore) CreateAdminNotification(ctx context.Context, n domain.AdminNotification) error {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	query := "CREATE type::thing($table, $id) CONTENT $notification RETURN NONE"
	params := map[string]any{
		"table":        notificationTable,
		"id":           n.ID,
		"notification": n,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to create admin notification: %w", err)
	}
	return nil
}
