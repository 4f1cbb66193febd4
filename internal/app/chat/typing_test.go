package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypingSetAndUnset(t *testing.T) {
	tracker := NewTypingTracker()

	tracker.SetTyping("general", "conn-1", "alice", true)
	tracker.SetTyping("general", "conn-2", "bob", true)

	assert.ElementsMatch(t, []string{"alice", "bob"}, tracker.ListTyping("general"))
	assert.Empty(t, tracker.ListTyping("random"))

	tracker.SetTyping("general", "conn-1", "alice", false)
	assert.ElementsMatch(t, []string{"bob"}, tracker.ListTyping("general"))

	// Unsetting an absent entry is harmless.
	tracker.SetTyping("general", "conn-1", "alice", false)
	tracker.SetTyping("nowhere", "conn-1", "alice", false)
}

func TestTypingReflectsLastSignal(t *testing.T) {
	tracker := NewTypingTracker()

	tracker.SetTyping("general", "conn-1", "alice", true)
	tracker.SetTyping("general", "conn-1", "alice", true)

	assert.Equal(t, []string{"alice"}, tracker.ListTyping("general"))
}

func TestClearRemovesFromAllRooms(t *testing.T) {
	tracker := NewTypingTracker()

	tracker.SetTyping("general", "conn-1", "alice", true)
	tracker.SetTyping("random", "conn-1", "alice", true)
	tracker.SetTyping("general", "conn-2", "bob", true)

	affected := tracker.Clear("conn-1")
	assert.ElementsMatch(t, []string{"general", "random"}, affected)

	assert.Equal(t, []string{"bob"}, tracker.ListTyping("general"))
	assert.Empty(t, tracker.ListTyping("random"))

	assert.Empty(t, tracker.Clear("conn-1"), "clearing again affects nothing")
}
