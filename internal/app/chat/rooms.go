package chat

import (
	"strings"
	"sync"
	"time"
)

// DefaultRoom is the well-known room every joining connection lands in. It
// always exists.
const DefaultRoom = "general"

// Room is a named broadcast scope for room messages and typing state.
type Room struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomDirectory maps room names to their metadata. Rooms are created
// implicitly the first time a client references them and are never deleted.
type RoomDirectory struct {
	mu     sync.RWMutex
	byName map[string]*Room
	order  []string
}

// NewRoomDirectory returns a directory seeded with the default room.
func NewRoomDirectory() *RoomDirectory {
	d := &RoomDirectory{
		byName: make(map[string]*Room),
	}
	d.Ensure(DefaultRoom)

	return d
}

// Normalize resolves empty or whitespace-only room names to the default room.
func Normalize(name string) string {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return DefaultRoom
	}

	return clean
}

// Ensure returns the room with the given name, creating it if absent.
// The boolean reports whether the room was created by this call.
func (d *RoomDirectory) Ensure(name string) (*Room, bool) {
	name = Normalize(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if room, ok := d.byName[name]; ok {
		return room, false
	}

	room := &Room{Name: name, CreatedAt: time.Now().UTC()}
	d.byName[name] = room
	d.order = append(d.order, name)

	return room, true
}

// List returns the room names in creation order.
func (d *RoomDirectory) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.order))
	copy(names, d.order)

	return names
}
