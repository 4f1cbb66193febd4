/*
Package chat contains the core logic for the real-time chat service.

This file defines the Connection Registry (who is online, as whom, where) and
the Identity Directory (the process-lifetime record of every display name the
server has seen, online or offline).
*/
package chat

import (
	"strings"
	"sync"
	"time"

	"sockchat/internal/pkg/errs"
)

// Connection maps a live transport session to its claimed identity and
// current room. Owned exclusively by the ConnectionRegistry.
type Connection struct {
	ID       string
	Username string

	// Room is the connection's current room, empty when the connection has
	// joined the chat but is in no room.
	Room string
}

// Identity is a process-lifetime presence record keyed by display name.
// Entries are never deleted, only toggled online/offline.
type Identity struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`

	// LastSeen is the RFC3339 timestamp of the last offline transition,
	// empty while the identity has never gone offline.
	LastSeen string `json:"lastSeen,omitempty"`

	// ConnectionID is the active connection while online, empty otherwise.
	ConnectionID string `json:"id,omitempty"`
}

// IdentityDirectory records every display name ever registered, preserving
// insertion order for listings.
type IdentityDirectory struct {
	mu     sync.RWMutex
	byName map[string]*Identity
	order  []string
}

// NewIdentityDirectory returns an empty IdentityDirectory.
func NewIdentityDirectory() *IdentityDirectory {
	return &IdentityDirectory{
		byName: make(map[string]*Identity),
	}
}

// IsOnline reports whether the exact display name is currently online.
// Matching is case-sensitive with no normalization.
func (d *IdentityDirectory) IsOnline(username string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	identity, ok := d.byName[username]
	return ok && identity.Online
}

// UpsertOnline creates or reactivates the identity for username, binding it
// to the given connection.
func (d *IdentityDirectory) UpsertOnline(username, connectionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	identity, ok := d.byName[username]
	if !ok {
		identity = &Identity{Username: username}
		d.byName[username] = identity
		d.order = append(d.order, username)
	}

	identity.Online = true
	identity.ConnectionID = connectionID
}

// MarkOffline transitions the identity to offline, stamping last-seen. The
// entry itself is permanent.
func (d *IdentityDirectory) MarkOffline(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	identity, ok := d.byName[username]
	if !ok {
		return
	}

	identity.Online = false
	identity.LastSeen = time.Now().UTC().Format(time.RFC3339Nano)
	identity.ConnectionID = ""
}

// ListAll returns a snapshot of every identity in insertion order, online and
// offline mixed.
func (d *IdentityDirectory) ListAll() []Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()

	identities := make([]Identity, 0, len(d.order))
	for _, username := range d.order {
		identities = append(identities, *d.byName[username])
	}

	return identities
}

// ConnectionRegistry is the source of truth for live connections. Display
// name uniqueness is enforced against the Identity Directory, so a stale
// online identity still blocks reuse.
type ConnectionRegistry struct {
	mu         sync.RWMutex
	conns      map[string]*Connection
	identities *IdentityDirectory
}

// NewConnectionRegistry returns a registry backed by the given directory.
func NewConnectionRegistry(identities *IdentityDirectory) *ConnectionRegistry {
	return &ConnectionRegistry{
		conns:      make(map[string]*Connection),
		identities: identities,
	}
}

// Register claims a display name for a connection. It fails with
// ErrEmptyUsername when the trimmed name is empty and ErrUsernameTaken when
// the directory already has that exact name online under another connection.
// A connection that already holds a name may re-register: the previous name
// is released only after the new claim validates, so a failed claim leaves
// the existing registration untouched.
func (r *ConnectionRegistry) Register(connectionID, username string) (*Connection, *errs.CustomError) {
	clean := strings.TrimSpace(username)
	if clean == "" {
		return nil, errs.NewError(errs.ErrEmptyUsername)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[connectionID]
	if (prev == nil || prev.Username != clean) && r.identities.IsOnline(clean) {
		return nil, errs.NewError(errs.ErrUsernameTaken)
	}

	if prev != nil && prev.Username != clean {
		r.identities.MarkOffline(prev.Username)
	}

	conn := &Connection{
		ID:       connectionID,
		Username: clean,
	}
	r.conns[connectionID] = conn
	r.identities.UpsertOnline(clean, connectionID)

	return conn, nil
}

// Get returns the connection for the given id, or nil when unknown.
func (r *ConnectionRegistry) Get(connectionID string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.conns[connectionID]
}

// SetRoom records the connection's current room. An empty room means the
// connection is in no room.
func (r *ConnectionRegistry) SetRoom(connectionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[connectionID]; ok {
		conn.Room = room
	}
}

// Remove destroys the connection entry and marks its identity offline.
// Unknown ids are a no-op, so disconnects before join are harmless.
func (r *ConnectionRegistry) Remove(connectionID string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return nil
	}

	delete(r.conns, connectionID)
	r.identities.MarkOffline(conn.Username)

	return conn
}

// InRoom returns the connection ids of every live connection currently in the
// given room.
func (r *ConnectionRegistry) InRoom(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, conn := range r.conns {
		if conn.Room == room {
			ids = append(ids, id)
		}
	}

	return ids
}
