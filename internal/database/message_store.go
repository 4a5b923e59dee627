package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/dmwangi/botdeck/internal/domain"
)

// messageTable is the SurrealDB table holding chat messages. Record IDs are
// type::thing(messageTable, <app-assigned uuid>); queries project the bare
// uuid back into the domain ID field.
const messageTable = "chat_message"

// SurrealMessageStore implements domain.MessageRepository on SurrealDB.
type SurrealMessageStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealMessageStore creates a new SurrealMessageStore.
func NewSurrealMessageStore(db *surrealdb.DB, ns, dbName string) *SurrealMessageStore {
	return &SurrealMessageStore{db: db, ns: ns, dbName: dbName}
}

func (s *SurrealMessageStore) use(ctx context.Context) error {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}
	return nil
}

// Create persists a new message under its pre-assigned ID.
func (s *SurrealMessageStore) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if err := s.use(ctx); err != nil {
		return err
	}

	query := "CREATE type::thing($table, $id) CONTENT $message RETURN NONE"
	params := map[string]any{
		"table":   messageTable,
		"id":      msg.ID,
		"message": msg,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Recent returns up to limit messages, oldest first.
func (s *SurrealMessageStore) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := "SELECT *, record::id(id) AS id FROM type::table($table) ORDER BY createdAt DESC LIMIT $limit"
	params := map[string]any{
		"table": messageTable,
		"limit": limit,
	}
	result, err := Query[domain.ChatMessage](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Newest-last order for the history snapshot.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

// Get returns one message, or (nil, nil) if it does not exist.
func (s *SurrealMessageStore) Get(ctx context.Context, id string) (*domain.ChatMessage, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := "SELECT *, record::id(id) AS id FROM type::thing($table, $id)"
	params := map[string]any{
		"table": messageTable,
		"id":    id,
	}
	msg, err := QueryOne[domain.ChatMessage](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

// Update replaces the mutable fields of a stored message.
func (s *SurrealMessageStore) Update(ctx context.Context, msg *domain.ChatMessage) error {
	if err := s.use(ctx); err != nil {
		return err
	}

	query := "UPDATE type::thing($table, $id) MERGE {body: $body, edited: $edited, editHistory: $history} RETURN NONE"
	params := map[string]any{
		"table":   messageTable,
		"id":      msg.ID,
		"body":    msg.Body,
		"edited":  msg.Edited,
		"history": msg.EditHistory,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

// Delete removes a single message. Absent messages are not an error.
func (s *SurrealMessageStore) Delete(ctx context.Context, id string) error {
	if err := s.use(ctx); err != nil {
		return err
	}

	query := "DELETE type::thing($table, $id)"
	params := map[string]any{
		"table": messageTable,
		"id":    id,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// DeleteMany removes the given messages and reports the IDs that actually
// existed. Absent IDs are silently excluded.
func (s *SurrealMessageStore) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	existing, err := Query[string](ctx, s.db,
		"SELECT VALUE record::id(id) FROM type::table($table) WHERE record::id(id) INSIDE $ids",
		map[string]any{"table": messageTable, "ids": ids})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve batch delete: %w", err)
	}
	if len(existing) == 0 {
		return nil, nil
	}

	if err := Execute(ctx, s.db,
		"DELETE type::table($table) WHERE record::id(id) INSIDE $ids",
		map[string]any{"table": messageTable, "ids": existing}); err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}

	// Preserve the caller's requested order for the broadcast.
	existingSet := make(map[string]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}
	removed := make([]string, 0, len(existing))
	for _, id := range ids {
		if existingSet[id] {
			removed = append(removed, id)
		}
	}
	return removed, nil
}
