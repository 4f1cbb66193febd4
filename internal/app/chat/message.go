/*
Package chat contains the core logic for the real-time chat service: connected
identities, rooms, bounded message stores, typing state, and the event-driven
protocol that keeps every connected client's view consistent.

This file defines the wire protocol: the frame envelope, event type constants,
the Message record, and the inbound/outbound payload shapes.
*/
package chat

import (
	"encoding/json"
	"time"

	"sockchat/internal/pkg/randx"
)

// EventType identifies a protocol event on the wire.
type EventType string

// Inbound events (client to server).
const (
	EventUserJoin        EventType = "user_join"
	EventSendMessage     EventType = "send_message"
	EventPrivateMessage  EventType = "private_message"
	EventTyping          EventType = "typing"
	EventJoinRoom        EventType = "join_room"
	EventLeaveRoom       EventType = "leave_room"
	EventAddReaction     EventType = "add_reaction"
	EventMessageRead     EventType = "message_read"
	EventRequestRoomList EventType = "request_room_list"
)

// Outbound events (server to client).
const (
	EventJoinSuccess      EventType = "join_success"
	EventUsernameError    EventType = "username_error"
	EventNotAuthenticated EventType = "not_authenticated"
	EventError            EventType = "error"
	EventReceiveMessage   EventType = "receive_message"
	EventMessageUpdated   EventType = "message_updated"
	EventUserList         EventType = "user_list"
	EventUserJoined       EventType = "user_joined"
	EventUserLeft         EventType = "user_left"
	EventRoomList         EventType = "room_list"
	EventRoomJoined       EventType = "room_joined"
	EventRoomLeft         EventType = "room_left"
	EventTypingUsers      EventType = "typing_users"
)

// Frame is the JSON envelope carried on the websocket in both directions.
type Frame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame marshals payload into a Frame ready for delivery.
func NewFrame(eventType EventType, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}

	return Frame{Type: eventType, Payload: raw}, nil
}

// Reaction is a single emoji reaction on a message. At most one reaction per
// user is retained per message.
type Reaction struct {
	Emoji     string `json:"emoji"`
	By        string `json:"by"`
	Timestamp string `json:"timestamp"`
}

// Message is a stored chat message, either room-scoped or private. The store
// owns every Message; reactions and readBy are mutated in place over the
// message's retained lifetime.
type Message struct {
	ID int64 `json:"id"`

	// Room is set for room-scoped messages, empty for private ones.
	Room string `json:"room,omitempty"`

	// To is the recipient connection id for private messages.
	To        string `json:"to,omitempty"`
	IsPrivate bool   `json:"isPrivate,omitempty"`

	Sender   string `json:"sender"`
	SenderID string `json:"senderId"`

	Body       string      `json:"message"`
	Attachment *Attachment `json:"attachment,omitempty"`

	Timestamp string     `json:"timestamp"`
	Reactions []Reaction `json:"reactions,omitempty"`
	ReadBy    []string   `json:"readBy,omitempty"`
}

// newMessage stamps a fresh id and timestamp onto a message record.
func newMessage(sender, senderID string) Message {
	return Message{
		ID:        randx.MessageID(),
		Sender:    sender,
		SenderID:  senderID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// SendMessagePayload is the inbound payload of EventSendMessage.
type SendMessagePayload struct {
	Body       string      `json:"message"`
	Room       string      `json:"room,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// PrivateMessagePayload is the inbound payload of EventPrivateMessage.
// To is the recipient's connection id.
type PrivateMessagePayload struct {
	To         string      `json:"to"`
	Body       string      `json:"message"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// TypingPayload is the inbound payload of EventTyping. The wire form may also
// be a bare boolean, which applies to the sender's current room.
type TypingPayload struct {
	IsTyping bool   `json:"isTyping"`
	Room     string `json:"room,omitempty"`
}

// ReactionPayload is the inbound payload of EventAddReaction.
type ReactionPayload struct {
	MessageID int64  `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// MessageReadPayload is the inbound payload of EventMessageRead.
type MessageReadPayload struct {
	MessageID int64 `json:"messageId"`
}

// JoinSuccessPayload acknowledges a successful join to the requester.
type JoinSuccessPayload struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// ErrorPayload carries a typed protocol error to a single connection.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UserEventPayload announces a user joining or leaving.
type UserEventPayload struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Room     string `json:"room,omitempty"`
}

// RoomJoinedPayload delivers the joined room and its retained history to the
// requester only.
type RoomJoinedPayload struct {
	Room    string    `json:"room"`
	History []Message `json:"history"`
}

// RoomLeftPayload acknowledges an explicit room departure to the requester.
type RoomLeftPayload struct {
	Room string `json:"room"`
}

// TypingUsersPayload carries the typing display names for one room.
type TypingUsersPayload struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}
