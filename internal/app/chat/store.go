/*
Package chat contains the core logic for the real-time chat service.

This file defines the MessageStore: the bounded, append-only-with-mutation
sequences of room and private messages. The store owns every message record;
callers only ever receive copies.
*/
package chat

import (
	"sync"
	"time"

	"sockchat/internal/pkg/errs"
)

const (
	// MaxRoomMessages caps the retained room-scoped messages across all rooms.
	MaxRoomMessages = 100

	// MaxPrivateMessages caps the retained private messages.
	MaxPrivateMessages = 500
)

// MessageStore holds the retained chat history, partitioned into the room
// (global) sequence and the private sequence. Oldest entries are evicted once
// a partition exceeds its cap.
type MessageStore struct {
	mu sync.RWMutex

	global  []*Message
	private []*Message

	// byID indexes both partitions; ids never collide across them.
	byID map[int64]*Message
}

// NewMessageStore returns an empty MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		byID: make(map[int64]*Message),
	}
}

// clone deep-copies the mutable slices so callers never alias the stored
// record.
func (m *Message) clone() Message {
	c := *m
	if m.Reactions != nil {
		c.Reactions = append([]Reaction(nil), m.Reactions...)
	}
	if m.ReadBy != nil {
		c.ReadBy = append([]string(nil), m.ReadBy...)
	}

	return c
}

// AppendRoom stores a new room-scoped message, assigning its id and
// timestamp, and returns a copy of the stored record.
func (s *MessageStore) AppendRoom(room, sender, senderID, body string, attachment *Attachment) Message {
	msg := newMessage(sender, senderID)
	msg.Room = Normalize(room)
	msg.Body = body
	msg.Attachment = attachment

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &msg
	s.global = append(s.global, stored)
	s.byID[stored.ID] = stored

	if len(s.global) > MaxRoomMessages {
		evicted := s.global[0]
		s.global = s.global[1:]
		delete(s.byID, evicted.ID)
	}

	return stored.clone()
}

// AppendPrivate stores a new private message from the sender connection to
// the recipient connection and returns a copy of the stored record.
func (s *MessageStore) AppendPrivate(sender, senderID, to, body string, attachment *Attachment) Message {
	msg := newMessage(sender, senderID)
	msg.To = to
	msg.IsPrivate = true
	msg.Body = body
	msg.Attachment = attachment

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &msg
	s.private = append(s.private, stored)
	s.byID[stored.ID] = stored

	if len(s.private) > MaxPrivateMessages {
		evicted := s.private[0]
		s.private = s.private[1:]
		delete(s.byID, evicted.ID)
	}

	return stored.clone()
}

// FindByID returns a copy of the message with the given id from either
// partition, or false when the id is unknown or already evicted.
func (s *MessageStore) FindByID(id int64) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}

	return msg.clone(), true
}

// ListByRoom returns copies of the retained messages for one room, oldest
// first.
func (s *MessageStore) ListByRoom(room string) []Message {
	room = Normalize(room)

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]Message, 0)
	for _, msg := range s.global {
		if msg.Room == room {
			history = append(history, msg.clone())
		}
	}

	return history
}

// ListForPair returns copies of the private messages exchanged between two
// connections, oldest first. The pair is symmetric.
func (s *MessageStore) ListForPair(connA, connB string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]Message, 0)
	for _, msg := range s.private {
		if (msg.SenderID == connA && msg.To == connB) || (msg.SenderID == connB && msg.To == connA) {
			history = append(history, msg.clone())
		}
	}

	return history
}

// ToggleReaction applies the one-reaction-per-user rule to the message with
// the given id: an identical (emoji, user) reaction is removed (toggle off);
// otherwise any previous reaction by that user is replaced by the new emoji.
// Returns a copy of the updated message.
func (s *MessageStore) ToggleReaction(id int64, username, emoji string) (Message, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return Message{}, errs.NewError(errs.ErrMessageNotFound)
	}

	for i, reaction := range msg.Reactions {
		if reaction.By == username && reaction.Emoji == emoji {
			msg.Reactions = append(msg.Reactions[:i], msg.Reactions[i+1:]...)
			return msg.clone(), nil
		}
	}

	kept := msg.Reactions[:0]
	for _, reaction := range msg.Reactions {
		if reaction.By != username {
			kept = append(kept, reaction)
		}
	}
	msg.Reactions = append(kept, Reaction{
		Emoji:     emoji,
		By:        username,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	return msg.clone(), nil
}

// MarkRead appends username to the message's readBy set. Repeated calls for
// the same reader are no-ops, not errors. Returns a copy of the updated
// message.
func (s *MessageStore) MarkRead(id int64, username string) (Message, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return Message{}, errs.NewError(errs.ErrMessageNotFound)
	}

	for _, reader := range msg.ReadBy {
		if reader == username {
			return msg.clone(), nil
		}
	}

	msg.ReadBy = append(msg.ReadBy, username)

	return msg.clone(), nil
}

// PageByRoom returns one page of a room's retained history, newest page
// first, for the REST surface. Page numbering starts at 1.
func (s *MessageStore) PageByRoom(room string, page, limit int) (messages []Message, total int) {
	history := s.ListByRoom(room)
	total = len(history)

	if page < 1 {
		page = 1
	}

	end := total - (page-1)*limit
	if end <= 0 {
		return []Message{}, total
	}

	start := end - limit
	if start < 0 {
		start = 0
	}

	return history[start:end], total
}
