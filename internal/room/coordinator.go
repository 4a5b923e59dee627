package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/protocol"
	"github.com/dmwangi/botdeck/internal/pubsub"
	"github.com/dmwangi/botdeck/internal/tags"
)

const (
	// DefaultHistoryLimit caps the history snapshot sent on join.
	DefaultHistoryLimit = 50

	// DefaultResyncInterval is how often the full presence list is broadcast
	// as a users_list frame. Incremental join/leave deltas do the real work;
	// the resync repairs clients that missed frames.
	DefaultResyncInterval = 30 * time.Second

	// maxBatchDelete bounds delete_selected_messages requests.
	maxBatchDelete = 100

	// replySnippetLength bounds the denormalized reply excerpt.
	replySnippetLength = 120

	// maxInlineAttachment bounds attachment bytes carried inside a frame.
	// Larger files go through the upload endpoint and arrive as a URL.
	maxInlineAttachment = 1 << 20
)

type commandKind int

const (
	cmdFrame commandKind = iota
	cmdLeave
	cmdDispatch
)

// command is one unit of work on the coordinator's serialized mutation path.
type command struct {
	kind commandKind

	// Frame commands: originating session and its raw payload.
	sess *Session
	raw  []byte

	// Dispatch commands: authenticated actor, decoded frame and the channel
	// the outcome is reported on.
	actor *domain.ChatUser
	frame protocol.Inbound
	reply chan error
}

// Coordinator is the single shared chat room. Every mutation of the presence
// registry and the message store funnels through its command channel and is
// applied by one goroutine, mutate-then-broadcast, so all connected clients
// observe an identical event order.
type Coordinator struct {
	messages   domain.MessageRepository
	moderation domain.ModerationRepository
	publisher  pubsub.Publisher
	gate       *Gate
	registry   *Registry

	commands chan command
	stopped  chan struct{}

	historyLimit   int
	resyncInterval time.Duration
	logger         *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithHistoryLimit overrides the size of the join history snapshot.
func WithHistoryLimit(n int) Option {
	return func(c *Coordinator) { c.historyLimit = n }
}

// WithResyncInterval overrides the presence resync period.
func WithResyncInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.resyncInterval = d }
}

// NewCoordinator creates the room coordinator. Run must be started before
// any connection is accepted.
func NewCoordinator(messages domain.MessageRepository, moderation domain.ModerationRepository, publisher pubsub.Publisher, opts ...Option) *Coordinator {
	c := &Coordinator{
		messages:       messages,
		moderation:     moderation,
		publisher:      publisher,
		registry:       NewRegistry(),
		commands:       make(chan command, 256),
		stopped:        make(chan struct{}),
		historyLimit:   DefaultHistoryLimit,
		resyncInterval: DefaultResyncInterval,
		logger:         slog.Default().With("service", "chat-room"),
	}
	c.gate = NewGate(moderation)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes the command queue until the context is canceled. It is the
// only goroutine that touches the presence registry or orders broadcasts.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("Chat room coordinator started")
	ticker := time.NewTicker(c.resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-c.commands:
			c.apply(ctx, cmd)

		case <-ticker.C:
			if c.registry.Len() > 0 {
				c.broadcast(protocol.UsersList{Users: c.registry.Users()})
			}

		case <-ctx.Done():
			close(c.stopped)
			for _, sess := range c.registry.Sessions() {
				c.registry.Remove(sess)
				sess.close()
			}
			c.logger.Info("Chat room coordinator stopped")
			return
		}
	}
}

// Handler returns the echo handler that upgrades a request to a WebSocket
// and attaches it to the room. The connection stays unjoined until it sends
// a join frame.
func (c *Coordinator) Handler() echo.HandlerFunc {
	return func(ec echo.Context) error {
		conn, err := websocket.Accept(ec.Response(), ec.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Origin is enforced by the fronting proxy.
		})
		if err != nil {
			c.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return ec.String(http.StatusBadRequest, "Failed to upgrade to WebSocket")
		}

		sess := newSession(c, conn)
		go sess.writePump()
		go sess.readPump()
		return nil
	}
}

// Dispatch funnels an operation from the HTTP mirror API through the same
// single-writer path the WebSocket sessions use. Supported frames: edit,
// delete, batch delete, restrict, unrestrict.
func (c *Coordinator) Dispatch(ctx context.Context, actor domain.ChatUser, frame protocol.Inbound) error {
	cmd := command{
		kind:  cmdDispatch,
		actor: &actor,
		frame: frame,
		reply: make(chan error, 1),
	}

	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return fmt.Errorf("chat room is shut down")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit enqueues a raw client frame. Called from session read pumps.
func (c *Coordinator) submit(sess *Session, raw []byte) {
	select {
	case c.commands <- command{kind: cmdFrame, sess: sess, raw: raw}:
	case <-c.stopped:
	}
}

// leave enqueues a disconnect. Called from session read pumps on close.
func (c *Coordinator) leave(sess *Session) {
	select {
	case c.commands <- command{kind: cmdLeave, sess: sess}:
	case <-c.stopped:
	}
}

// apply executes exactly one command. Mutation and broadcast happen here,
// back to back, before the next command is read.
func (c *Coordinator) apply(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdLeave:
		c.handleLeave(ctx, cmd.sess)

	case cmdFrame:
		frame, err := protocol.DecodeInbound(cmd.raw)
		if err != nil {
			c.sendError(cmd.sess, err)
			return
		}
		c.applyFrame(ctx, cmd.sess, frame)

	case cmdDispatch:
		cmd.reply <- c.applyActor(ctx, *cmd.actor, cmd.frame)
	}
}

// applyFrame runs the per-connection state machine for one decoded frame.
func (c *Coordinator) applyFrame(ctx context.Context, sess *Session, frame protocol.Inbound) {
	entry := c.registry.EntryFor(sess)

	if join, ok := frame.(protocol.Join); ok {
		c.handleJoin(ctx, sess, entry, join)
		return
	}

	if entry == nil {
		c.sendError(sess, domain.ErrUnauthenticated)
		return
	}

	var err error
	switch f := frame.(type) {
	case protocol.SendMessage:
		err = c.handleSend(ctx, entry, f)
	case protocol.EditMessage:
		err = c.handleEdit(ctx, entry.User, f)
	case protocol.DeleteMessage:
		err = c.handleDelete(ctx, entry.User, f)
	case protocol.DeleteSelected:
		err = c.handleDeleteSelected(ctx, entry.User, f)
	case protocol.RestrictUser:
		err = c.handleRestrict(ctx, entry.User, f)
	case protocol.UnrestrictUser:
		err = c.handleUnrestrict(ctx, entry.User, f)
	default:
		err = fmt.Errorf("%w: unsupported frame %T", domain.ErrValidationFailed, frame)
	}

	if err != nil {
		c.sendError(sess, err)
	}
}

// applyActor runs an operation on behalf of an already-authenticated actor
// arriving over the HTTP mirror API.
func (c *Coordinator) applyActor(ctx context.Context, actor domain.ChatUser, frame protocol.Inbound) error {
	switch f := frame.(type) {
	case protocol.EditMessage:
		return c.handleEdit(ctx, actor, f)
	case protocol.DeleteMessage:
		return c.handleDelete(ctx, actor, f)
	case protocol.DeleteSelected:
		return c.handleDeleteSelected(ctx, actor, f)
	case protocol.RestrictUser:
		return c.handleRestrict(ctx, actor, f)
	case protocol.UnrestrictUser:
		return c.handleUnrestrict(ctx, actor, f)
	default:
		return fmt.Errorf("%w: frame %T is not available over the HTTP API", domain.ErrValidationFailed, frame)
	}
}

func (c *Coordinator) handleJoin(ctx context.Context, sess *Session, entry *Entry, f protocol.Join) {
	if entry != nil {
		c.sendError(sess, fmt.Errorf("%w: connection already joined", domain.ErrValidationFailed))
		return
	}
	if !f.Role.Valid() {
		c.sendError(sess, fmt.Errorf("%w: unknown role %q", domain.ErrValidationFailed, f.Role))
		return
	}

	allowed, err := c.gate.CanJoin(ctx, f.DeviceFingerprint)
	if err != nil {
		c.sendError(sess, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
		return
	}
	if !allowed {
		// Ban check runs before any history is sent, so a banned device
		// never sees room content.
		c.sendError(sess, domain.ErrDeviceBanned)
		sess.close()
		c.logger.Warn("Rejected join from banned device", "sessionID", sess.ID, "userID", f.UserID)
		return
	}

	restricted, err := c.moderation.IsRestricted(ctx, f.UserID)
	if err != nil {
		c.sendError(sess, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
		return
	}

	history, err := c.messages.Recent(ctx, c.historyLimit)
	if err != nil {
		c.sendError(sess, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
		return
	}

	user := domain.ChatUser{
		ID:          f.UserID,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		Restricted:  restricted,
	}
	first := c.registry.Add(sess, user)

	c.sendTo(sess, protocol.ChatHistory{Messages: history})
	c.sendTo(sess, protocol.UsersList{Users: c.registry.Users()})
	if first {
		c.broadcastExcept(sess, protocol.UserJoined{User: user})
		c.publishLifecycle(TopicClientConnected, user, sess.ID)
	}

	c.logger.Info("User joined chat", "userID", user.ID, "sessionID", sess.ID, "restricted", restricted)
}

func (c *Coordinator) handleLeave(ctx context.Context, sess *Session) {
	entry := c.registry.Remove(sess)
	sess.close()
	if entry == nil {
		return
	}

	if !c.registry.UserOnline(entry.User.ID) {
		c.broadcast(protocol.UserLeft{UserID: entry.User.ID})
		c.publishLifecycle(TopicClientDisconnected, entry.User, sess.ID)
	}
	c.logger.Info("User left chat", "userID", entry.User.ID, "sessionID", sess.ID)
}

func (c *Coordinator) handleSend(ctx context.Context, entry *Entry, f protocol.SendMessage) error {
	if !c.gate.CanPost(entry) {
		return domain.ErrRestricted
	}

	text := strings.TrimSpace(f.Text)
	if text == "" && f.Attachment == nil {
		return fmt.Errorf("%w: empty message", domain.ErrValidationFailed)
	}
	if len(text) > protocol.MaxBodyLength {
		return fmt.Errorf("%w: message body exceeds %d bytes", domain.ErrValidationFailed, protocol.MaxBodyLength)
	}
	if f.Attachment != nil && len(f.Attachment.Data) > maxInlineAttachment {
		return fmt.Errorf("%w: inline attachment exceeds %d bytes", domain.ErrValidationFailed, maxInlineAttachment)
	}

	var replyRef *domain.ReplyRef
	if f.ReplyTo != "" {
		target, err := c.messages.Get(ctx, f.ReplyTo)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if target == nil {
			return fmt.Errorf("%w: reply target %s", domain.ErrNotFound, f.ReplyTo)
		}
		replyRef = &domain.ReplyRef{
			MessageID:  target.ID,
			Snippet:    target.Snippet(replySnippetLength),
			AuthorName: target.AuthorName,
		}
	}

	tagSet, flagged := tags.Detect(text)
	msg := domain.ChatMessage{
		ID:                uuid.NewString(),
		AuthorID:          entry.User.ID,
		AuthorName:        entry.User.DisplayName,
		AuthorIsModerator: entry.User.Role.IsModerator(),
		Body:              text,
		Attachment:        f.Attachment,
		ReplyTo:           replyRef,
		Tags:              tagSet,
		Flagged:           flagged,
		CreatedAt:         time.Now().UTC(),
	}

	if err := c.messages.Create(ctx, &msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	c.broadcast(protocol.NewMessage{Message: msg})

	// Tagged messages from non-moderators feed the admin notification
	// channel after the broadcast commits; a bus failure must never fail
	// the send.
	if flagged && !entry.User.Role.IsModerator() {
		c.publishTagged(ctx, msg)
	}
	return nil
}

func (c *Coordinator) handleEdit(ctx context.Context, actor domain.ChatUser, f protocol.EditMessage) error {
	if len(f.Text) > protocol.MaxBodyLength {
		return fmt.Errorf("%w: message body exceeds %d bytes", domain.ErrValidationFailed, protocol.MaxBodyLength)
	}

	msg, err := c.messages.Get(ctx, f.MessageID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if msg == nil {
		return fmt.Errorf("%w: message %s", domain.ErrNotFound, f.MessageID)
	}
	if msg.AuthorID != actor.ID && !actor.Role.IsModerator() {
		return domain.ErrForbidden
	}

	// Tags are intentionally not re-scanned on edit; the original tag set
	// and notification stand.
	msg.EditHistory = append(msg.EditHistory, domain.EditRevision{
		Body:     msg.Body,
		EditedAt: time.Now().UTC(),
	})
	msg.Body = f.Text
	msg.Edited = true

	if err := c.messages.Update(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	c.broadcast(protocol.MessageUpdated{MessageID: msg.ID, Content: msg.Body})
	return nil
}

func (c *Coordinator) handleDelete(ctx context.Context, actor domain.ChatUser, f protocol.DeleteMessage) error {
	msg, err := c.messages.Get(ctx, f.MessageID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if msg == nil {
		return fmt.Errorf("%w: message %s", domain.ErrNotFound, f.MessageID)
	}
	if msg.AuthorID != actor.ID && !actor.Role.IsModerator() {
		return domain.ErrForbidden
	}

	if err := c.messages.Delete(ctx, f.MessageID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	c.broadcast(protocol.MessageDeleted{MessageID: f.MessageID})
	return nil
}

func (c *Coordinator) handleDeleteSelected(ctx context.Context, actor domain.ChatUser, f protocol.DeleteSelected) error {
	if len(f.MessageIDs) > maxBatchDelete {
		return fmt.Errorf("%w: batch exceeds %d messages", domain.ErrValidationFailed, maxBatchDelete)
	}

	// The authorization rule is the single-delete rule applied per message:
	// moderators may cross authors, plain users may not. One foreign message
	// fails the whole batch before anything is removed.
	if !actor.Role.IsModerator() {
		for _, id := range f.MessageIDs {
			msg, err := c.messages.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
			}
			if msg != nil && msg.AuthorID != actor.ID {
				return domain.ErrForbidden
			}
		}
	}

	removed, err := c.messages.DeleteMany(ctx, f.MessageIDs)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(removed) == 0 {
		// Everything was already gone; nothing to announce.
		return nil
	}

	c.broadcast(protocol.MessagesDeleted{MessageIDs: removed})
	return nil
}

func (c *Coordinator) handleRestrict(ctx context.Context, actor domain.ChatUser, f protocol.RestrictUser) error {
	if !actor.Role.IsModerator() {
		return domain.ErrForbidden
	}
	if f.TargetID == actor.ID {
		return fmt.Errorf("%w: cannot restrict yourself", domain.ErrForbidden)
	}

	restriction := domain.Restriction{
		UserID:       f.TargetID,
		RestrictedBy: actor.ID,
		Reason:       f.Reason,
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.moderation.CreateRestriction(ctx, restriction); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	// Every live connection for the target flips immediately; the target's
	// next send is rejected before any later message commits.
	c.registry.SetRestricted(f.TargetID, true)
	c.broadcast(protocol.UserRestricted{UserID: f.TargetID})

	c.logger.Info("User restricted", "targetID", f.TargetID, "by", actor.ID, "reason", f.Reason)
	return nil
}

func (c *Coordinator) handleUnrestrict(ctx context.Context, actor domain.ChatUser, f protocol.UnrestrictUser) error {
	if !actor.Role.IsModerator() {
		return domain.ErrForbidden
	}
	if f.TargetID == actor.ID {
		return fmt.Errorf("%w: cannot unrestrict yourself", domain.ErrForbidden)
	}

	if err := c.moderation.DeleteRestriction(ctx, f.TargetID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	c.registry.SetRestricted(f.TargetID, false)
	c.broadcast(protocol.UserUnrestricted{UserID: f.TargetID})

	c.logger.Info("User unrestricted", "targetID", f.TargetID, "by", actor.ID)
	return nil
}

// --- fan-out helpers ---

func (c *Coordinator) broadcast(f protocol.Outbound) {
	payload, err := protocol.EncodeOutbound(f)
	if err != nil {
		c.logger.Error("Failed to encode broadcast frame", "error", err)
		return
	}
	for _, sess := range c.registry.Sessions() {
		sess.enqueue(payload)
	}
}

func (c *Coordinator) broadcastExcept(skip *Session, f protocol.Outbound) {
	payload, err := protocol.EncodeOutbound(f)
	if err != nil {
		c.logger.Error("Failed to encode broadcast frame", "error", err)
		return
	}
	for _, sess := range c.registry.Sessions() {
		if sess != skip {
			sess.enqueue(payload)
		}
	}
}

func (c *Coordinator) sendTo(sess *Session, f protocol.Outbound) {
	payload, err := protocol.EncodeOutbound(f)
	if err != nil {
		c.logger.Error("Failed to encode frame", "error", err)
		return
	}
	sess.enqueue(payload)
}

// sendError reports a guard failure to the originating session only.
func (c *Coordinator) sendError(sess *Session, err error) {
	c.sendTo(sess, protocol.ErrorFrame{
		Code:    protocol.CodeForError(err),
		Message: err.Error(),
	})
}

func (c *Coordinator) publishTagged(ctx context.Context, msg domain.ChatMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal tagged message", "messageID", msg.ID, "error", err)
		return
	}
	err = c.publisher.Publish(ctx, pubsub.Message{
		Topic:   TopicMessageTagged,
		UserID:  msg.AuthorID,
		Payload: payload,
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		c.logger.Error("Failed to publish tagged message", "messageID", msg.ID, "error", err)
	}
}

func (c *Coordinator) publishLifecycle(topic string, user domain.ChatUser, sessionID string) {
	payload, _ := json.Marshal(map[string]any{
		"userID":    user.ID,
		"sessionID": sessionID,
	})
	err := c.publisher.Publish(context.Background(), pubsub.Message{
		Topic:   topic,
		UserID:  user.ID,
		Payload: payload,
	})
	if err != nil {
		c.logger.Error("Failed to publish lifecycle event", "topic", topic, "error", err)
	}
}
