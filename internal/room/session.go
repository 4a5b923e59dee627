package room

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// sendBuffer bounds the per-connection outbound queue. A client that
	// falls this far behind starts losing frames rather than stalling the
	// coordinator.
	sendBuffer = 256

	// writeWait is the time allowed to write one frame to the peer. A
	// connection exceeding it is treated as closed.
	writeWait = 10 * time.Second
)

// Session is the server-side representation of one physical client
// connection. It owns the WebSocket and translates between raw frames and
// coordinator commands; all protocol decisions happen in the coordinator.
type Session struct {
	// ID uniquely identifies this connection; a user with several tabs open
	// has several sessions.
	ID string

	conn  *websocket.Conn
	coord *Coordinator

	// mu guards send against concurrent close. The channel is set to nil
	// once closed so late enqueues become no-ops.
	mu   sync.RWMutex
	send chan []byte
}

func newSession(coord *Coordinator, conn *websocket.Conn) *Session {
	return &Session{
		ID:    uuid.NewString(),
		conn:  conn,
		coord: coord,
		send:  make(chan []byte, sendBuffer),
	}
}

// enqueue queues an outbound frame without blocking. If the client's buffer
// is full the frame is dropped; the periodic presence resync and the
// client's own reconnect logic recover from truncation.
func (s *Session) enqueue(payload []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.send == nil {
		return
	}

	select {
	case s.send <- payload:
	default:
		slog.Warn("Session send buffer full, dropping frame", "sessionID", s.ID)
	}
}

// close shuts the outbound channel exactly once. The write pump drains what
// is already queued, then closes the connection.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.send != nil {
		close(s.send)
		s.send = nil
	}
}

// readPump pumps frames from the WebSocket into the coordinator's command
// queue. It runs until the connection errors or closes, then notifies the
// coordinator so presence is cleaned up.
func (s *Session) readPump() {
	defer func() {
		s.coord.leave(s)
		s.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, data, err := s.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "sessionID", s.ID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "sessionID", s.ID, "error", err)
			}
			return
		}
		s.coord.submit(s, data)
	}
}

// writePump pumps queued frames out to the WebSocket. It exits when the
// coordinator closes the session's channel or a write fails.
func (s *Session) writePump() {
	// Capture the channel: close() nils the field, but the closed channel
	// still drains.
	s.mu.RLock()
	send := s.send
	s.mu.RUnlock()

	defer s.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	for payload := range send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := s.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "sessionID", s.ID, "error", err)
			return
		}
	}
}
