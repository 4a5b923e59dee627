// Package protocol defines the wire frames exchanged between chat clients and
// the room coordinator. Inbound and outbound frames are closed tagged unions:
// every frame type carries a marker method, and encoding/decoding switches
// exhaustively over the variants listed here.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dmwangi/botdeck/internal/domain"
)

// MaxBodyLength bounds message and edit bodies. Oversized bodies fail
// validation before any mutation is attempted.
const MaxBodyLength = 4000

// envelope is the JSON shape of every frame on the wire.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorCode is the machine-readable reason carried by an error frame.
type ErrorCode string

const (
	CodeNotAuthenticated ErrorCode = "not_authenticated"
	CodeRestricted       ErrorCode = "restricted"
	CodeForbidden        ErrorCode = "forbidden"
	CodeDeviceBanned     ErrorCode = "device_banned"
	CodeNotFound         ErrorCode = "not_found"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeStoreUnavailable ErrorCode = "store_unavailable"
)

// CodeForError maps a domain sentinel to its wire reason code. Anything that
// is not a known sentinel is reported as a validation failure.
func CodeForError(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUnauthenticated):
		return CodeNotAuthenticated
	case errors.Is(err, domain.ErrRestricted):
		return CodeRestricted
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, domain.ErrDeviceBanned):
		return CodeDeviceBanned
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return CodeStoreUnavailable
	default:
		return CodeValidationFailed
	}
}

// --- Inbound frames (client -> server) ---

// Inbound is the closed union of client requests.
type Inbound interface{ inbound() }

// Join authenticates a connection with the identity issued by the upstream
// auth subsystem. The role claim is trusted; the device fingerprint is
// checked against the durable ban list before the connection is accepted.
type Join struct {
	UserID            string      `json:"userId" validate:"required"`
	DisplayName       string      `json:"displayName" validate:"required"`
	Role              domain.Role `json:"role" validate:"required"`
	DeviceFingerprint string      `json:"deviceFingerprint" validate:"required"`
}

// SendMessage posts a new message, optionally with an attachment reference
// and a reply target.
type SendMessage struct {
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
	ReplyTo    string             `json:"replyTo,omitempty"`
}

// EditMessage replaces a message body.
type EditMessage struct {
	MessageID string `json:"messageId" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// DeleteMessage removes a single message.
type DeleteMessage struct {
	MessageID string `json:"messageId" validate:"required"`
}

// DeleteSelected removes a batch of messages in one protocol step.
type DeleteSelected struct {
	MessageIDs []string `json:"messageIds" validate:"required,min=1,dive,required"`
}

// RestrictUser blocks a user from posting. Requires role >= admin.
type RestrictUser struct {
	TargetID string `json:"targetId" validate:"required"`
	Reason   string `json:"reason,omitempty"`
}

// UnrestrictUser lifts a restriction. Requires role >= admin.
type UnrestrictUser struct {
	TargetID string `json:"targetId" validate:"required"`
}

func (Join) inbound()           {}
func (SendMessage) inbound()    {}
func (EditMessage) inbound()    {}
func (DeleteMessage) inbound()  {}
func (DeleteSelected) inbound() {}
func (RestrictUser) inbound()   {}
func (UnrestrictUser) inbound() {}

// Inbound frame type tags.
const (
	TypeJoin           = "join"
	TypeSendMessage    = "send_message"
	TypeEditMessage    = "edit_message"
	TypeDeleteMessage  = "delete_message"
	TypeDeleteSelected = "delete_selected_messages"
	TypeRestrictUser   = "restrict_user"
	TypeUnrestrictUser = "unrestrict_user"
)

var validate = validator.New()

// DecodeInbound parses and validates a raw client frame. Unknown types,
// malformed JSON and failed field validation all yield
// domain.ErrValidationFailed so the caller can answer with a session-scoped
// error frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed frame: %v", domain.ErrValidationFailed, err)
	}

	var frame Inbound
	switch env.Type {
	case TypeJoin:
		frame = &Join{}
	case TypeSendMessage:
		frame = &SendMessage{}
	case TypeEditMessage:
		frame = &EditMessage{}
	case TypeDeleteMessage:
		frame = &DeleteMessage{}
	case TypeDeleteSelected:
		frame = &DeleteSelected{}
	case TypeRestrictUser:
		frame = &RestrictUser{}
	case TypeUnrestrictUser:
		frame = &UnrestrictUser{}
	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", domain.ErrValidationFailed, env.Type)
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, frame); err != nil {
			return nil, fmt.Errorf("%w: malformed %s payload: %v", domain.ErrValidationFailed, env.Type, err)
		}
	}
	if err := validate.Struct(frame); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	return deref(frame), nil
}

// deref returns the value form of a decoded frame pointer so callers can
// type-switch on concrete values.
func deref(f Inbound) Inbound {
	switch v := f.(type) {
	case *Join:
		return *v
	case *SendMessage:
		return *v
	case *EditMessage:
		return *v
	case *DeleteMessage:
		return *v
	case *DeleteSelected:
		return *v
	case *RestrictUser:
		return *v
	case *UnrestrictUser:
		return *v
	}
	return f
}

// --- Outbound frames (server -> one or all clients) ---

// Outbound is the closed union of server events.
type Outbound interface{ outbound() }

// ChatHistory is the join response, sent to the joining connection only.
// Messages are ordered oldest-first (newest last).
type ChatHistory struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// NewMessage broadcasts a freshly persisted message, author included.
type NewMessage struct {
	Message domain.ChatMessage `json:"message"`
}

// MessageUpdated broadcasts an edit delta.
type MessageUpdated struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

// MessageDeleted broadcasts a single removal.
type MessageDeleted struct {
	MessageID string `json:"messageId"`
}

// MessagesDeleted broadcasts a batch removal; it carries only the IDs that
// were actually removed.
type MessagesDeleted struct {
	MessageIDs []string `json:"messageIds"`
}

// UserJoined is broadcast when an identity's first connection joins.
type UserJoined struct {
	User domain.ChatUser `json:"user"`
}

// UserLeft is broadcast when an identity's last connection closes.
type UserLeft struct {
	UserID string `json:"userId"`
}

// UsersList is a full presence resync, sent to a joining connection and
// periodically broadcast.
type UsersList struct {
	Users []domain.ChatUser `json:"users"`
}

// UserRestricted is broadcast when a restriction commits, including to the
// target's own sessions.
type UserRestricted struct {
	UserID string `json:"userId"`
}

// UserUnrestricted is broadcast when a restriction is lifted.
type UserUnrestricted struct {
	UserID string `json:"userId"`
}

// ErrorFrame is a session-scoped error event. It is never broadcast.
type ErrorFrame struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (ChatHistory) outbound()      {}
func (NewMessage) outbound()       {}
func (MessageUpdated) outbound()   {}
func (MessageDeleted) outbound()   {}
func (MessagesDeleted) outbound()  {}
func (UserJoined) outbound()       {}
func (UserLeft) outbound()         {}
func (UsersList) outbound()        {}
func (UserRestricted) outbound()   {}
func (UserUnrestricted) outbound() {}
func (ErrorFrame) outbound()       {}

// Outbound frame type tags.
const (
	TypeChatHistory      = "chat_history"
	TypeChatMessage      = "chat_message"
	TypeMessageUpdated   = "message_updated"
	TypeMessageDeleted   = "message_deleted"
	TypeMessagesDeleted  = "messages_deleted"
	TypeUserJoined       = "user_joined"
	TypeUserLeft         = "user_left"
	TypeUsersList        = "users_list"
	TypeUserRestricted   = "user_restricted"
	TypeUserUnrestricted = "user_unrestricted"
	TypeError            = "error"
)

// EncodeOutbound serializes a server event into its wire envelope.
func EncodeOutbound(f Outbound) ([]byte, error) {
	var frameType string
	switch f.(type) {
	case ChatHistory:
		frameType = TypeChatHistory
	case NewMessage:
		frameType = TypeChatMessage
	case MessageUpdated:
		frameType = TypeMessageUpdated
	case MessageDeleted:
		frameType = TypeMessageDeleted
	case MessagesDeleted:
		frameType = TypeMessagesDeleted
	case UserJoined:
		frameType = TypeUserJoined
	case UserLeft:
		frameType = TypeUserLeft
	case UsersList:
		frameType = TypeUsersList
	case UserRestricted:
		frameType = TypeUserRestricted
	case UserUnrestricted:
		frameType = TypeUserUnrestricted
	case ErrorFrame:
		frameType = TypeError
	default:
		return nil, fmt.Errorf("unknown outbound frame %T", f)
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", frameType, err)
	}
	return json.Marshal(envelope{Type: frameType, Payload: payload})
}

// DecodeOutbound parses a server frame; used by tests and programmatic
// clients that fold the event stream into local state.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	decode := func(dst Outbound) (Outbound, error) {
		if err := json.Unmarshal(env.Payload, dst); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		return dst, nil
	}

	switch env.Type {
	case TypeChatHistory:
		return decode(&ChatHistory{})
	case TypeChatMessage:
		return decode(&NewMessage{})
	case TypeMessageUpdated:
		return decode(&MessageUpdated{})
	case TypeMessageDeleted:
		return decode(&MessageDeleted{})
	case TypeMessagesDeleted:
		return decode(&MessagesDeleted{})
	case TypeUserJoined:
		return decode(&UserJoined{})
	case TypeUserLeft:
		return decode(&UserLeft{})
	case TypeUsersList:
		return decode(&UsersList{})
	case TypeUserRestricted:
		return decode(&UserRestricted{})
	case TypeUserUnrestricted:
		return decode(&UserUnrestricted{})
	case TypeError:
		return decode(&ErrorFrame{})
	}
	return nil, fmt.Errorf("unknown outbound frame type %q", env.Type)
}
