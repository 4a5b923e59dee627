package domain

import (
	"context"
	"time"
	"unicode/utf8"
)

// AttachmentKind discriminates attachment payloads.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is an optional reference carried by a message. The payload is
// either inline bytes or a URL returned by the upload endpoint, never both.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	URL  string         `json:"url,omitempty"`
	Data []byte         `json:"data,omitempty"`
	Name string         `json:"name,omitempty"`
	Size int64          `json:"size,omitempty"`
}

// ReplyRef points at the message being replied to. The snippet and author
// name are denormalized at send time so clients can render the quote without
// a second lookup, even after the target is deleted.
type ReplyRef struct {
	MessageID  string `json:"messageId"`
	Snippet    string `json:"snippet,omitempty"`
	AuthorName string `json:"authorName,omitempty"`
}

// EditRevision records one prior body of an edited message.
type EditRevision struct {
	Body     string    `json:"body"`
	EditedAt time.Time `json:"editedAt"`
}

// ChatMessage is a durable chat room message. Tags and the flagged bit are
// derived from the body exactly once, at creation; edits do not re-scan.
type ChatMessage struct {
	ID                string         `json:"id,omitempty"`
	AuthorID          string         `json:"authorId"`
	AuthorName        string         `json:"authorName"`
	AuthorIsModerator bool           `json:"authorIsModerator,omitempty"`
	Body              string         `json:"body"`
	Attachment        *Attachment    `json:"attachment,omitempty"`
	ReplyTo           *ReplyRef      `json:"replyTo,omitempty"`
	Edited            bool           `json:"edited,omitempty"`
	EditHistory       []EditRevision `json:"editHistory,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Flagged           bool           `json:"isTagged,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// Snippet returns a short excerpt of the body suitable for a ReplyRef.
func (m *ChatMessage) Snippet(max int) string {
	if len(m.Body) <= max {
		return m.Body
	}
	// Back off to a rune boundary so truncation never splits a character.
	cut := max
	for cut > 0 && !utf8.RuneStart(m.Body[cut]) {
		cut--
	}
	return m.Body[:cut] + "…"
}

// MessageRepository is the narrow contract the chat core consumes for durable
// message storage. It lives in the domain because it is a requirement OF the
// domain, not of the database implementation.
type MessageRepository interface {
	// Create persists a new message under its pre-assigned ID.
	Create(ctx context.Context, msg *ChatMessage) error

	// Recent returns up to limit messages ordered oldest-first (newest last),
	// which is the order the history snapshot is delivered in.
	Recent(ctx context.Context, limit int) ([]ChatMessage, error)

	// Get returns the message with the given ID, or (nil, nil) if absent.
	Get(ctx context.Context, id string) (*ChatMessage, error)

	// Update replaces the stored body, edit marker and edit history.
	Update(ctx context.Context, msg *ChatMessage) error

	// Delete removes a single message. Deleting an absent message is not an
	// error.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes the given messages and returns the IDs that actually
	// existed and were removed. Absent IDs are silently excluded.
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
}
