/*
Package chat contains the core logic for the real-time chat service.

This file defines the Hub, the event router at the center of the system. All
state mutations run inside its single Run goroutine: inbound frames are
validated against the Connection Registry, applied to the relevant store, and
fanned out as broadcast (everyone), room-scoped, or narrowcast (the two ends
of a private interaction) events. No handler blocks; the only asynchronous
boundary is each client's buffered send queue.
*/
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"sockchat/internal/pkg/errs"
	"sockchat/internal/pkg/logx"
)

const inboundChannelBuffer = 1024

// MaxContentBytes is the maximum allowed size of a message body in bytes.
const MaxContentBytes = 5000

// inboundFrame couples a decoded frame with the connection that sent it.
type inboundFrame struct {
	client *Client
	frame  Frame
}

// Hub coordinates every connection, room, and store in the process. It is the
// only component that mutates shared state, one event at a time.
type Hub struct {
	identities *IdentityDirectory
	registry   *ConnectionRegistry
	rooms      *RoomDirectory
	store      *MessageStore
	typing     *TypingTracker

	// clients maps connection id to its live client. Guarded by mu so the
	// fan-out helpers can resolve recipients outside the Run loop in tests.
	clients map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	stopChan   chan struct{}

	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewHub constructs a Hub with fresh, empty stores.
func NewHub() *Hub {
	identities := NewIdentityDirectory()

	h := &Hub{
		identities: identities,
		registry:   NewConnectionRegistry(identities),
		rooms:      NewRoomDirectory(),
		store:      NewMessageStore(),
		typing:     NewTypingTracker(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, inboundChannelBuffer),
		stopChan:   make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}

	// The Run slot is claimed up front, so Shutdown always waits for the
	// loop even when it has not been scheduled yet.
	h.wg.Add(1)

	return h
}

// Identities exposes the Identity Directory for the REST surface.
func (h *Hub) Identities() *IdentityDirectory { return h.identities }

// Rooms exposes the Room Directory for the REST surface.
func (h *Hub) Rooms() *RoomDirectory { return h.rooms }

// Store exposes the Message Store for the REST surface.
func (h *Hub) Store() *MessageStore { return h.store }

// Run is the hub's event loop. It owns every state mutation and must be
// started exactly once before Shutdown is called.
func (h *Hub) Run() {
	defer h.wg.Done()

	h.logger.Info().Msg("Hub event loop started.")

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.disconnect(client)

		case in := <-h.inbound:
			h.dispatch(in.client, in.frame)

		case <-h.stopChan:
			h.logger.Info().Msg("Hub event loop stopped.")
			return
		}
	}
}

// Shutdown stops the event loop and closes every client send queue.
func (h *Hub) Shutdown() {
	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}
	h.wg.Wait()

	h.mu.Lock()
	for id, client := range h.clients {
		delete(h.clients, id)
		client.closeSend()
	}
	h.mu.Unlock()

	h.logger.Info().Msg("Hub shutdown complete.")
}

// RegisterClient queues a freshly upgraded connection for tracking.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopChan:
		client.closeSend()
	}
}

// UnregisterClient queues a connection for disconnect cleanup.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopChan:
	}
}

// addClient tracks a connection in the Anonymous state. No protocol effect
// until the client joins with a username.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	h.logger.Info().Str("connection_id", client.id).Msg("Connection tracked.")
}

// dispatch routes one inbound frame to its handler. Unknown event types are
// logged and ignored; a malformed event never disturbs other connections.
func (h *Hub) dispatch(c *Client, frame Frame) {
	switch frame.Type {
	case EventUserJoin:
		h.handleUserJoin(c, frame.Payload)
	case EventSendMessage:
		h.handleSendMessage(c, frame.Payload)
	case EventPrivateMessage:
		h.handlePrivateMessage(c, frame.Payload)
	case EventTyping:
		h.handleTyping(c, frame.Payload)
	case EventJoinRoom:
		h.handleJoinRoom(c, frame.Payload)
	case EventLeaveRoom:
		h.handleLeaveRoom(c)
	case EventAddReaction:
		h.handleAddReaction(c, frame.Payload)
	case EventMessageRead:
		h.handleMessageRead(c, frame.Payload)
	case EventRequestRoomList:
		h.sendEvent(c, EventRoomList, h.rooms.List())
	default:
		h.logger.Warn().
			Str("event_type", string(frame.Type)).
			Str("connection_id", c.id).
			Msg("Client sent unsupported event type.")
	}
}

// authenticated resolves the sender's connection, emitting not_authenticated
// when the connection has not joined yet.
func (h *Hub) authenticated(c *Client) *Connection {
	conn := h.registry.Get(c.id)
	if conn == nil {
		customErr := errs.NewError(errs.ErrNotAuthenticated)
		h.sendEvent(c, EventNotAuthenticated, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
	}

	return conn
}

func (h *Hub) handleUserJoin(c *Client, payload json.RawMessage) {
	var username string
	if err := json.Unmarshal(payload, &username); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("Client sent invalid user_join payload.")
		return
	}

	prev := h.registry.Get(c.id)

	// Register validates the new name before releasing any previous claim,
	// so a rejected rename leaves the existing registration untouched.
	conn, customErr := h.registry.Register(c.id, username)
	if customErr != nil {
		h.sendEvent(c, EventUsernameError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
		return
	}

	// A successful rename departs the previous room under the old name.
	if prev != nil {
		h.leaveCurrentRoom(prev)
	}

	h.rooms.Ensure(DefaultRoom)
	h.registry.SetRoom(c.id, DefaultRoom)

	h.sendEvent(c, EventJoinSuccess, JoinSuccessPayload{Username: conn.Username, ID: conn.ID})
	h.sendEvent(c, EventRoomJoined, RoomJoinedPayload{Room: DefaultRoom, History: h.store.ListByRoom(DefaultRoom)})

	h.broadcastAll(EventUserList, h.identities.ListAll())
	h.broadcastAll(EventRoomList, h.rooms.List())
	h.broadcastAll(EventUserJoined, UserEventPayload{Username: conn.Username, ID: conn.ID})

	h.logger.Info().Str("username", conn.Username).Str("connection_id", conn.ID).Msg("User joined the chat.")
}

func (h *Hub) handleSendMessage(c *Client, payload json.RawMessage) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	var input SendMessagePayload
	if err := json.Unmarshal(payload, &input); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("Client sent invalid send_message payload.")
		return
	}

	if len(input.Body) > MaxContentBytes {
		h.sendError(c, errs.NewError(errs.ErrMessageContentTooLong))
		return
	}

	room := input.Room
	if room == "" {
		room = conn.Room
	}
	room = Normalize(room)

	if _, created := h.rooms.Ensure(room); created {
		h.broadcastAll(EventRoomList, h.rooms.List())
	}

	msg := h.store.AppendRoom(room, conn.Username, conn.ID, input.Body, input.Attachment)
	h.broadcastRoom(room, EventReceiveMessage, msg)
}

func (h *Hub) handlePrivateMessage(c *Client, payload json.RawMessage) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	var input PrivateMessagePayload
	if err := json.Unmarshal(payload, &input); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("Client sent invalid private_message payload.")
		return
	}

	if input.To == "" {
		h.sendError(c, errs.NewError(errs.ErrRecipientRequired))
		return
	}

	if len(input.Body) > MaxContentBytes {
		h.sendError(c, errs.NewError(errs.ErrMessageContentTooLong))
		return
	}

	msg := h.store.AppendPrivate(conn.Username, conn.ID, input.To, input.Body, input.Attachment)
	h.narrowcast([]string{conn.ID, input.To}, EventPrivateMessage, msg)
}

func (h *Hub) handleTyping(c *Client, payload json.RawMessage) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	// The wire form is either {isTyping, room} or a bare boolean for the
	// sender's current room.
	var input TypingPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		var bare bool
		if err := json.Unmarshal(payload, &bare); err != nil {
			h.logger.Warn().Str("connection_id", c.id).Msg("Client sent invalid typing payload.")
			return
		}
		input = TypingPayload{IsTyping: bare}
	}

	room := input.Room
	if room == "" {
		room = conn.Room
	}
	room = Normalize(room)

	h.typing.SetTyping(room, conn.ID, conn.Username, input.IsTyping)
	h.broadcastTyping(room)
}

func (h *Hub) handleJoinRoom(c *Client, payload json.RawMessage) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	var roomName string
	if err := json.Unmarshal(payload, &roomName); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("Client sent invalid join_room payload.")
		return
	}
	roomName = Normalize(roomName)

	h.leaveCurrentRoom(conn)

	h.rooms.Ensure(roomName)
	h.registry.SetRoom(conn.ID, roomName)

	h.sendEvent(c, EventRoomJoined, RoomJoinedPayload{Room: roomName, History: h.store.ListByRoom(roomName)})
	h.broadcastAll(EventRoomList, h.rooms.List())
}

func (h *Hub) handleLeaveRoom(c *Client) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	room := conn.Room
	if room == "" {
		return
	}

	h.leaveCurrentRoom(conn)
	h.registry.SetRoom(conn.ID, "")

	h.sendEvent(c, EventRoomLeft, RoomLeftPayload{Room: room})
}

// leaveCurrentRoom announces the departure to the connection's current room
// and clears its typing state there. The caller decides the next room.
func (h *Hub) leaveCurrentRoom(conn *Connection) {
	room := conn.Room
	if room == "" {
		return
	}

	h.typing.SetTyping(room, conn.ID, conn.Username, false)
	h.broadcastRoom(room, EventUserLeft, UserEventPayload{Username: conn.Username, ID: conn.ID, Room: room})
	h.broadcastTyping(room)
}

func (h *Hub) handleAddReaction(c *Client, payload json.RawMessage) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	var input ReactionPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("Client sent invalid add_reaction payload.")
		return
	}

	msg, customErr := h.store.ToggleReaction(input.MessageID, conn.Username, input.Emoji)
	if customErr != nil {
		h.sendError(c, customErr)
		return
	}

	h.fanOutUpdate(conn, msg)
}

func (h *Hub) handleMessageRead(c *Client, payload json.RawMessage) {
	conn := h.authenticated(c)
	if conn == nil {
		return
	}

	var input MessageReadPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", c.id).Msg("Client sent invalid message_read payload.")
		return
	}

	msg, customErr := h.store.MarkRead(input.MessageID, conn.Username)
	if customErr != nil {
		h.sendError(c, customErr)
		return
	}

	h.fanOutUpdate(conn, msg)
}

// fanOutUpdate delivers a message_updated event with the scoping of the
// underlying message: the whole room for room messages, only the two ends
// (plus the mutating connection) for private ones.
func (h *Hub) fanOutUpdate(conn *Connection, msg Message) {
	if msg.IsPrivate {
		h.narrowcast([]string{conn.ID, msg.SenderID, msg.To}, EventMessageUpdated, msg)
		return
	}

	h.broadcastRoom(msg.Room, EventMessageUpdated, msg)
}

// disconnect is the terminal transition for a connection. Cleanup is atomic
// with respect to other events: nothing dispatched afterwards can observe a
// half-cleaned-up connection.
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()

	conn := h.registry.Remove(c.id)
	c.closeSend()

	if conn == nil {
		// Never joined; nothing to announce.
		return
	}

	for _, room := range h.typing.Clear(conn.ID) {
		h.broadcastTyping(room)
	}

	h.broadcastAll(EventUserLeft, UserEventPayload{Username: conn.Username, ID: conn.ID})
	h.broadcastAll(EventUserList, h.identities.ListAll())

	h.logger.Info().Str("username", conn.Username).Str("connection_id", conn.ID).Msg("User left the chat.")
}

// broadcastTyping sends the room's typing list to its current members.
func (h *Hub) broadcastTyping(room string) {
	h.broadcastRoom(room, EventTypingUsers, TypingUsersPayload{
		Room:  room,
		Users: h.typing.ListTyping(room),
	})
}

// sendError delivers a typed error event to a single connection. Errors never
// broadcast and never mutate a store.
func (h *Hub) sendError(c *Client, customErr *errs.CustomError) {
	h.sendEvent(c, EventError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
}

// sendEvent marshals one event for a single connection.
func (h *Hub) sendEvent(c *Client, eventType EventType, payload any) {
	if raw, ok := h.marshalEvent(eventType, payload); ok {
		c.enqueue(raw)
	}
}

// marshalEvent builds the wire bytes for one outbound event.
func (h *Hub) marshalEvent(eventType EventType, payload any) ([]byte, bool) {
	frame, err := NewFrame(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build outbound frame.")
		return nil, false
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal outbound frame.")
		return nil, false
	}

	return raw, true
}

// broadcastAll delivers one event to every tracked connection, joined or not.
func (h *Hub) broadcastAll(eventType EventType, payload any) {
	raw, ok := h.marshalEvent(eventType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.enqueue(raw)
	}
}

// broadcastRoom delivers one event to every connection currently in room.
func (h *Hub) broadcastRoom(room string, eventType EventType, payload any) {
	h.narrowcast(h.registry.InRoom(room), eventType, payload)
}

// narrowcast delivers one event to an explicit set of connection ids,
// skipping duplicates and ids with no live client.
func (h *Hub) narrowcast(connectionIDs []string, eventType EventType, payload any) {
	raw, ok := h.marshalEvent(eventType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{}, len(connectionIDs))
	for _, id := range connectionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if client, ok := h.clients[id]; ok {
			client.enqueue(raw)
		}
	}
}
