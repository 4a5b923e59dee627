package room

import (
	"sort"

	"github.com/dmwangi/botdeck/internal/domain"
)

// Entry ties one joined session to its presence record.
type Entry struct {
	Session *Session
	User    domain.ChatUser
}

// Registry is the in-memory presence table: every joined session and the
// identity behind it. A user with several open connections has one entry per
// session. The registry is exclusively owned and mutated by the coordinator's
// single-writer loop, so it carries no locking of its own.
type Registry struct {
	entries map[*Session]*Entry
	byUser  map[string]map[*Session]*Entry
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[*Session]*Entry),
		byUser:  make(map[string]map[*Session]*Entry),
	}
}

// Add registers a joined session. It reports whether this is the user's
// first live connection.
func (r *Registry) Add(sess *Session, user domain.ChatUser) bool {
	entry := &Entry{Session: sess, User: user}
	r.entries[sess] = entry

	sessions, online := r.byUser[user.ID]
	if !online {
		sessions = make(map[*Session]*Entry)
		r.byUser[user.ID] = sessions
	}
	sessions[sess] = entry
	return !online
}

// Remove drops a session and returns its entry, or nil if the session never
// joined. It reports through UserOnline whether other connections remain.
func (r *Registry) Remove(sess *Session) *Entry {
	entry, ok := r.entries[sess]
	if !ok {
		return nil
	}
	delete(r.entries, sess)

	if sessions, ok := r.byUser[entry.User.ID]; ok {
		delete(sessions, sess)
		if len(sessions) == 0 {
			delete(r.byUser, entry.User.ID)
		}
	}
	return entry
}

// EntryFor returns the entry for a session, or nil if it has not joined.
func (r *Registry) EntryFor(sess *Session) *Entry {
	return r.entries[sess]
}

// UserOnline reports whether the identity has at least one live connection.
func (r *Registry) UserOnline(userID string) bool {
	return len(r.byUser[userID]) > 0
}

// SetRestricted flips the restriction flag on every live entry for the user
// and returns how many entries were touched.
func (r *Registry) SetRestricted(userID string, restricted bool) int {
	sessions := r.byUser[userID]
	for _, entry := range sessions {
		entry.User.Restricted = restricted
	}
	return len(sessions)
}

// Users returns one presence record per online identity, sorted by ID for a
// stable wire order.
func (r *Registry) Users() []domain.ChatUser {
	users := make([]domain.ChatUser, 0, len(r.byUser))
	for _, sessions := range r.byUser {
		for _, entry := range sessions {
			users = append(users, entry.User)
			break
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Sessions returns every joined session.
func (r *Registry) Sessions() []*Session {
	sessions := make([]*Session, 0, len(r.entries))
	for sess := range r.entries {
		sessions = append(sessions, sess)
	}
	return sessions
}

// Len returns the number of joined sessions.
func (r *Registry) Len() int {
	return len(r.entries)
}
