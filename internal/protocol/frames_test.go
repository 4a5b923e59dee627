package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmwangi/botdeck/internal/domain"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "join",
			raw:  `{"type":"join","payload":{"userId":"u1","displayName":"Ann","role":"user","deviceFingerprint":"fp-1"}}`,
			want: Join{UserID: "u1", DisplayName: "Ann", Role: domain.RoleUser, DeviceFingerprint: "fp-1"},
		},
		{
			name: "send message with reply target",
			raw:  `{"type":"send_message","payload":{"text":"hi","replyTo":"m1"}}`,
			want: SendMessage{Text: "hi", ReplyTo: "m1"},
		},
		{
			name: "edit message",
			raw:  `{"type":"edit_message","payload":{"messageId":"m1","text":"fixed"}}`,
			want: EditMessage{MessageID: "m1", Text: "fixed"},
		},
		{
			name: "delete selected",
			raw:  `{"type":"delete_selected_messages","payload":{"messageIds":["a","b"]}}`,
			want: DeleteSelected{MessageIDs: []string{"a", "b"}},
		},
		{
			name: "restrict user",
			raw:  `{"type":"restrict_user","payload":{"targetId":"u2","reason":"spam"}}`,
			want: RestrictUser{TargetID: "u2", Reason: "spam"},
		},
		{
			name: "unrestrict user",
			raw:  `{"type":"unrestrict_user","payload":{"targetId":"u2"}}`,
			want: UnrestrictUser{TargetID: "u2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInbound_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", `not json at all`},
		{"unknown type", `{"type":"shout","payload":{}}`},
		{"join missing fingerprint", `{"type":"join","payload":{"userId":"u1","displayName":"Ann","role":"user"}}`},
		{"edit missing id", `{"type":"edit_message","payload":{"text":"x"}}`},
		{"empty batch", `{"type":"delete_selected_messages","payload":{"messageIds":[]}}`},
		{"payload type mismatch", `{"type":"delete_message","payload":{"messageId":42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidationFailed)
		})
	}
}

func TestOutboundRoundTrip(t *testing.T) {
	frames := []Outbound{
		NewMessage{Message: domain.ChatMessage{ID: "m1", AuthorID: "u1", Body: "hello"}},
		MessageUpdated{MessageID: "m1", Content: "edited"},
		MessagesDeleted{MessageIDs: []string{"m1", "m2"}},
		UserJoined{User: domain.ChatUser{ID: "u1", DisplayName: "Ann", Role: domain.RoleUser}},
		UserRestricted{UserID: "u1"},
		ErrorFrame{Code: CodeRestricted, Message: "user is restricted from posting"},
	}

	for _, frame := range frames {
		data, err := EncodeOutbound(frame)
		require.NoError(t, err)

		decoded, err := DecodeOutbound(data)
		require.NoError(t, err)

		switch want := frame.(type) {
		case NewMessage:
			assert.Equal(t, &want, decoded)
		case MessageUpdated:
			assert.Equal(t, &want, decoded)
		case MessagesDeleted:
			assert.Equal(t, &want, decoded)
		case UserJoined:
			assert.Equal(t, &want, decoded)
		case UserRestricted:
			assert.Equal(t, &want, decoded)
		case ErrorFrame:
			assert.Equal(t, &want, decoded)
		}
	}
}

func TestCodeForError(t *testing.T) {
	assert.Equal(t, CodeRestricted, CodeForError(domain.ErrRestricted))
	assert.Equal(t, CodeDeviceBanned, CodeForError(domain.ErrDeviceBanned))
	assert.Equal(t, CodeNotFound, CodeForError(domain.ErrNotFound))
	assert.Equal(t, CodeValidationFailed, CodeForError(assert.AnError))
	assert.Equal(t, ErrorCode(""), CodeForError(nil))
}
