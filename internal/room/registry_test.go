package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmwangi/botdeck/internal/domain"
)

func TestRegistryAddReportsFirstConnection(t *testing.T) {
	r := NewRegistry()
	alice := domain.ChatUser{ID: "alice", DisplayName: "Alice", Role: domain.RoleUser}

	tab1 := &Session{ID: "tab-1"}
	tab2 := &Session{ID: "tab-2"}

	assert.True(t, r.Add(tab1, alice), "first connection should be reported")
	assert.False(t, r.Add(tab2, alice), "second tab is not a new arrival")
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.UserOnline("alice"))

	// Presence is one record per identity regardless of tab count.
	assert.Len(t, r.Users(), 1)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	alice := domain.ChatUser{ID: "alice", Role: domain.RoleUser}

	tab1 := &Session{ID: "tab-1"}
	tab2 := &Session{ID: "tab-2"}
	r.Add(tab1, alice)
	r.Add(tab2, alice)

	entry := r.Remove(tab1)
	require.NotNil(t, entry)
	assert.Equal(t, "alice", entry.User.ID)
	assert.True(t, r.UserOnline("alice"), "other tab still open")

	entry = r.Remove(tab2)
	require.NotNil(t, entry)
	assert.False(t, r.UserOnline("alice"))
	assert.Equal(t, 0, r.Len())

	assert.Nil(t, r.Remove(tab2), "double remove yields nil")
	assert.Nil(t, r.Remove(&Session{ID: "never-joined"}))
}

func TestRegistrySetRestricted(t *testing.T) {
	r := NewRegistry()
	alice := domain.ChatUser{ID: "alice", Role: domain.RoleUser}
	bob := domain.ChatUser{ID: "bob", Role: domain.RoleUser}

	tab1 := &Session{ID: "tab-1"}
	tab2 := &Session{ID: "tab-2"}
	other := &Session{ID: "tab-3"}
	r.Add(tab1, alice)
	r.Add(tab2, alice)
	r.Add(other, bob)

	assert.Equal(t, 2, r.SetRestricted("alice", true))

	assert.True(t, r.EntryFor(tab1).User.Restricted)
	assert.True(t, r.EntryFor(tab2).User.Restricted)
	assert.False(t, r.EntryFor(other).User.Restricted)

	assert.Equal(t, 0, r.SetRestricted("offline", true))
}

func TestRegistryUsersSortedByID(t *testing.T) {
	r := NewRegistry()
	r.Add(&Session{ID: "s1"}, domain.ChatUser{ID: "zoe", Role: domain.RoleUser})
	r.Add(&Session{ID: "s2"}, domain.ChatUser{ID: "alice", Role: domain.RoleAdmin})
	r.Add(&Session{ID: "s3"}, domain.ChatUser{ID: "mike", Role: domain.RoleUser})

	users := r.Users()
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].ID)
	assert.Equal(t, "mike", users[1].ID)
	assert.Equal(t, "zoe", users[2].ID)
}
