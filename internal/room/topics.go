package room

// Bus topics published by the room coordinator. Consumers subscribe through
// the pubsub bridge; none of them sit on the protocol's critical path.
const (
	// TopicMessageTagged carries the full message JSON of a flagged message
	// from a non-moderator. The admin notifier persists these.
	TopicMessageTagged = "chat.message.tagged"

	// TopicClientConnected and TopicClientDisconnected are lifecycle events
	// emitted when an identity's first connection joins or last connection
	// closes.
	TopicClientConnected    = "chat.client.connected"
	TopicClientDisconnected = "chat.client.disconnected"
)
