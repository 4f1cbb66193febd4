package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sockchat/internal/pkg/errs"
)

func TestAppendRoomAssignsIdentity(t *testing.T) {
	store := NewMessageStore()

	msg := store.AppendRoom("general", "alice", "conn-1", "hi", nil)

	assert.NotZero(t, msg.ID)
	assert.Equal(t, "general", msg.Room)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "conn-1", msg.SenderID)
	assert.NotEmpty(t, msg.Timestamp)
	assert.False(t, msg.IsPrivate)
}

func TestRoomStoreEvictsOldest(t *testing.T) {
	store := NewMessageStore()

	var first Message
	for i := 0; i < MaxRoomMessages+1; i++ {
		msg := store.AppendRoom("general", "alice", "conn-1", fmt.Sprintf("msg %d", i), nil)
		if i == 0 {
			first = msg
		}
	}

	history := store.ListByRoom("general")
	require.Len(t, history, MaxRoomMessages)
	assert.Equal(t, "msg 1", history[0].Body)
	assert.Equal(t, fmt.Sprintf("msg %d", MaxRoomMessages), history[MaxRoomMessages-1].Body)

	_, found := store.FindByID(first.ID)
	assert.False(t, found, "evicted message must not be findable")
}

func TestPrivateStoreEvictsOldest(t *testing.T) {
	store := NewMessageStore()

	var first Message
	for i := 0; i < MaxPrivateMessages+1; i++ {
		msg := store.AppendPrivate("alice", "conn-1", "conn-2", fmt.Sprintf("pm %d", i), nil)
		if i == 0 {
			first = msg
		}
	}

	history := store.ListForPair("conn-1", "conn-2")
	require.Len(t, history, MaxPrivateMessages)
	assert.Equal(t, "pm 1", history[0].Body)

	_, found := store.FindByID(first.ID)
	assert.False(t, found)
}

func TestFindByIDAcrossPartitions(t *testing.T) {
	store := NewMessageStore()

	roomMsg := store.AppendRoom("general", "alice", "conn-1", "hi", nil)
	privateMsg := store.AppendPrivate("alice", "conn-1", "conn-2", "psst", nil)

	found, ok := store.FindByID(roomMsg.ID)
	require.True(t, ok)
	assert.False(t, found.IsPrivate)

	found, ok = store.FindByID(privateMsg.ID)
	require.True(t, ok)
	assert.True(t, found.IsPrivate)

	_, ok = store.FindByID(42)
	assert.False(t, ok)
}

func TestListForPairIsSymmetric(t *testing.T) {
	store := NewMessageStore()

	store.AppendPrivate("alice", "conn-1", "conn-2", "to bob", nil)
	store.AppendPrivate("bob", "conn-2", "conn-1", "to alice", nil)
	store.AppendPrivate("alice", "conn-1", "conn-3", "to carol", nil)

	pair := store.ListForPair("conn-1", "conn-2")
	require.Len(t, pair, 2)
	assert.Equal(t, "to bob", pair[0].Body)
	assert.Equal(t, "to alice", pair[1].Body)

	reversed := store.ListForPair("conn-2", "conn-1")
	assert.Equal(t, pair, reversed)
}

func TestToggleReactionTogglesOff(t *testing.T) {
	store := NewMessageStore()
	msg := store.AppendRoom("general", "alice", "conn-1", "hi", nil)

	updated, customErr := store.ToggleReaction(msg.ID, "bob", "👍")
	require.Nil(t, customErr)
	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, "👍", updated.Reactions[0].Emoji)
	assert.Equal(t, "bob", updated.Reactions[0].By)

	// Same reaction again removes it.
	updated, customErr = store.ToggleReaction(msg.ID, "bob", "👍")
	require.Nil(t, customErr)
	assert.Empty(t, updated.Reactions)
}

func TestToggleReactionReplacesPriorEmoji(t *testing.T) {
	store := NewMessageStore()
	msg := store.AppendRoom("general", "alice", "conn-1", "hi", nil)

	_, customErr := store.ToggleReaction(msg.ID, "bob", "👍")
	require.Nil(t, customErr)
	_, customErr = store.ToggleReaction(msg.ID, "carol", "🎉")
	require.Nil(t, customErr)

	// Bob switches emoji; only his reaction is replaced.
	updated, customErr := store.ToggleReaction(msg.ID, "bob", "❤️")
	require.Nil(t, customErr)
	require.Len(t, updated.Reactions, 2)

	byUser := map[string]string{}
	for _, reaction := range updated.Reactions {
		byUser[reaction.By] = reaction.Emoji
	}
	assert.Equal(t, "❤️", byUser["bob"])
	assert.Equal(t, "🎉", byUser["carol"])
}

func TestToggleReactionUnknownMessage(t *testing.T) {
	store := NewMessageStore()

	_, customErr := store.ToggleReaction(999, "bob", "👍")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrMessageNotFound, customErr.Code)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	store := NewMessageStore()
	msg := store.AppendRoom("general", "alice", "conn-1", "hi", nil)

	for i := 0; i < 3; i++ {
		updated, customErr := store.MarkRead(msg.ID, "bob")
		require.Nil(t, customErr)
		assert.Equal(t, []string{"bob"}, updated.ReadBy)
	}

	updated, customErr := store.MarkRead(msg.ID, "carol")
	require.Nil(t, customErr)
	assert.Equal(t, []string{"bob", "carol"}, updated.ReadBy)
}

func TestMarkReadUnknownMessage(t *testing.T) {
	store := NewMessageStore()

	_, customErr := store.MarkRead(999, "bob")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrMessageNotFound, customErr.Code)
}

func TestReturnedMessagesDoNotAliasStore(t *testing.T) {
	store := NewMessageStore()
	msg := store.AppendRoom("general", "alice", "conn-1", "hi", nil)

	before, customErr := store.ToggleReaction(msg.ID, "bob", "👍")
	require.Nil(t, customErr)

	_, customErr = store.ToggleReaction(msg.ID, "bob", "❤️")
	require.Nil(t, customErr)

	// The earlier snapshot must not see the later mutation.
	require.Len(t, before.Reactions, 1)
	assert.Equal(t, "👍", before.Reactions[0].Emoji)
}

func TestPageByRoom(t *testing.T) {
	store := NewMessageStore()
	for i := 1; i <= 5; i++ {
		store.AppendRoom("general", "alice", "conn-1", fmt.Sprintf("msg %d", i), nil)
	}

	// Page 1 holds the newest messages.
	page, total := store.PageByRoom("general", 1, 2)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "msg 4", page[0].Body)
	assert.Equal(t, "msg 5", page[1].Body)

	page, _ = store.PageByRoom("general", 3, 2)
	require.Len(t, page, 1)
	assert.Equal(t, "msg 1", page[0].Body)

	page, _ = store.PageByRoom("general", 4, 2)
	assert.Empty(t, page)

	page, total = store.PageByRoom("empty-room", 1, 10)
	assert.Zero(t, total)
	assert.Empty(t, page)
}
