package pubsub

import "context"

// Message is the structure passed between components on the bus. It is a thin
// wrapper over raw bytes so the bus stays agnostic of payload shape.
type Message struct {
	// Topic identifies the channel the message belongs to
	// (e.g., "chat.message.tagged").
	Topic string
	// UserID identifies the user the message concerns, when relevant.
	UserID string
	// Payload contains the raw message data.
	Payload []byte
	// Metadata carries arbitrary key-value context (e.g., timestamps).
	Metadata map[string]string
}

// Handler processes one received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher is the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber is the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with
	// the handler. It returns once the subscription is active; handling runs
	// in the background until the context is canceled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
