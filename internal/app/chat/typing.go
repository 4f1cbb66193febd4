package chat

import "sync"

// TypingTracker holds the per-room set of currently-typing connections.
// Entries reflect exactly the last signal received per connection; expiry on
// inactivity is a client concern.
type TypingTracker struct {
	mu sync.RWMutex

	// rooms maps room name to connection id to display name.
	rooms map[string]map[string]string
}

// NewTypingTracker returns an empty TypingTracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		rooms: make(map[string]map[string]string),
	}
}

// SetTyping records or clears the typing state for a connection in a room.
func (t *TypingTracker) SetTyping(room, connectionID, username string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isTyping {
		if t.rooms[room] == nil {
			t.rooms[room] = make(map[string]string)
		}
		t.rooms[room][connectionID] = username
		return
	}

	if members, ok := t.rooms[room]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(t.rooms, room)
		}
	}
}

// Clear removes a connection from every room. Used on disconnect and on room
// switch.
func (t *TypingTracker) Clear(connectionID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var affected []string
	for room, members := range t.rooms {
		if _, ok := members[connectionID]; ok {
			delete(members, connectionID)
			affected = append(affected, room)
			if len(members) == 0 {
				delete(t.rooms, room)
			}
		}
	}

	return affected
}

// ListTyping returns the display names currently typing in a room.
func (t *TypingTracker) ListTyping(room string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]string, 0, len(t.rooms[room]))
	for _, username := range t.rooms[room] {
		users = append(users, username)
	}

	return users
}
