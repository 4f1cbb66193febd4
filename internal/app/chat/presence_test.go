package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sockchat/internal/pkg/errs"
)

func newTestRegistry() (*ConnectionRegistry, *IdentityDirectory) {
	identities := NewIdentityDirectory()
	return NewConnectionRegistry(identities), identities
}

func TestRegisterTrimsAndRejectsEmptyName(t *testing.T) {
	registry, _ := newTestRegistry()

	_, customErr := registry.Register("conn-1", "   ")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrEmptyUsername, customErr.Code)

	conn, customErr := registry.Register("conn-1", "  alice  ")
	require.Nil(t, customErr)
	assert.Equal(t, "alice", conn.Username)
}

func TestRegisterRejectsOnlineDuplicate(t *testing.T) {
	registry, _ := newTestRegistry()

	_, customErr := registry.Register("conn-1", "alice")
	require.Nil(t, customErr)

	_, customErr = registry.Register("conn-2", "alice")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUsernameTaken, customErr.Code)

	// The failed attempt must not have mutated any state.
	assert.Nil(t, registry.Get("conn-2"))
}

func TestReRegisterReleasesOldNameOnlyOnSuccess(t *testing.T) {
	registry, identities := newTestRegistry()

	registry.Register("conn-1", "alice")
	_, customErr := registry.Register("conn-2", "bob")
	require.Nil(t, customErr)
	registry.SetRoom("conn-2", "general")

	// A rejected claim leaves the existing registration untouched.
	_, customErr = registry.Register("conn-2", "alice")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUsernameTaken, customErr.Code)

	conn := registry.Get("conn-2")
	require.NotNil(t, conn)
	assert.Equal(t, "bob", conn.Username)
	assert.Equal(t, "general", conn.Room)
	assert.True(t, identities.IsOnline("bob"))

	_, customErr = registry.Register("conn-2", "   ")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrEmptyUsername, customErr.Code)
	assert.True(t, identities.IsOnline("bob"))

	// A valid claim releases the old name.
	conn, customErr = registry.Register("conn-2", "bobby")
	require.Nil(t, customErr)
	assert.Equal(t, "bobby", conn.Username)
	assert.False(t, identities.IsOnline("bob"))
	assert.True(t, identities.IsOnline("bobby"))
}

func TestReRegisterSameNameIsAllowed(t *testing.T) {
	registry, identities := newTestRegistry()

	registry.Register("conn-1", "alice")

	conn, customErr := registry.Register("conn-1", "alice")
	require.Nil(t, customErr)
	assert.Equal(t, "alice", conn.Username)
	assert.True(t, identities.IsOnline("alice"))
}

func TestRegisterIsCaseSensitive(t *testing.T) {
	registry, _ := newTestRegistry()

	_, customErr := registry.Register("conn-1", "Alice")
	require.Nil(t, customErr)

	_, customErr = registry.Register("conn-2", "alice")
	assert.Nil(t, customErr, "uniqueness is exact-match, no normalization")
}

func TestNameReusableAfterOffline(t *testing.T) {
	registry, identities := newTestRegistry()

	_, customErr := registry.Register("conn-1", "alice")
	require.Nil(t, customErr)

	removed := registry.Remove("conn-1")
	require.NotNil(t, removed)
	assert.Equal(t, "alice", removed.Username)

	_, customErr = registry.Register("conn-2", "alice")
	require.Nil(t, customErr)

	all := identities.ListAll()
	require.Len(t, all, 1, "identity entries are permanent, not duplicated on rejoin")
	assert.True(t, all[0].Online)
	assert.Equal(t, "conn-2", all[0].ConnectionID)
}

func TestRemoveMarksIdentityOffline(t *testing.T) {
	registry, identities := newTestRegistry()

	_, customErr := registry.Register("conn-1", "alice")
	require.Nil(t, customErr)

	registry.Remove("conn-1")

	all := identities.ListAll()
	require.Len(t, all, 1)
	assert.False(t, all[0].Online)
	assert.NotEmpty(t, all[0].LastSeen)
	assert.Empty(t, all[0].ConnectionID)

	assert.Nil(t, registry.Get("conn-1"))
	assert.Nil(t, registry.Remove("conn-1"), "second remove is a no-op")
}

func TestListAllPreservesInsertionOrder(t *testing.T) {
	registry, identities := newTestRegistry()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, customErr := registry.Register("conn-"+name, name)
		require.Nil(t, customErr)
	}
	registry.Remove("conn-alice")

	all := identities.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, "carol", all[0].Username)
	assert.Equal(t, "alice", all[1].Username)
	assert.Equal(t, "bob", all[2].Username)
}

func TestSetRoomAndInRoom(t *testing.T) {
	registry, _ := newTestRegistry()

	registry.Register("conn-1", "alice")
	registry.Register("conn-2", "bob")

	registry.SetRoom("conn-1", "general")
	registry.SetRoom("conn-2", "random")

	assert.ElementsMatch(t, []string{"conn-1"}, registry.InRoom("general"))
	assert.ElementsMatch(t, []string{"conn-2"}, registry.InRoom("random"))
	assert.Empty(t, registry.InRoom("nowhere"))

	registry.SetRoom("conn-2", "general")
	assert.ElementsMatch(t, []string{"conn-1", "conn-2"}, registry.InRoom("general"))
}
