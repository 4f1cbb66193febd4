/*
Package chat contains the core logic for the real-time chat service.

This file defines the Client struct, representing one live websocket
connection. It manages the read and write pumps, the buffered send queue, and
the handoff of inbound frames to the Hub.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sockchat/internal/pkg/logx"
)

const (
	// timeout for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxFrameSize = 16384

	// sendQueueSize is the per-connection outbound buffer.
	sendQueueSize = 256
)

// Client represents one live websocket connection, identified by a
// transport-assigned connection id that is unique per live connection only.
type Client struct {
	hub *Hub

	// conn is the underlying websocket connection. Nil in tests driving the
	// hub directly.
	conn *websocket.Conn

	id   string
	send chan []byte

	closeOnce sync.Once
	logger    zerolog.Logger
}

// NewClient constructs a Client for a freshly upgraded connection.
func NewClient(hub *Hub, wsConn *websocket.Conn, connectionID string) *Client {
	return &Client{
		hub:    hub,
		conn:   wsConn,
		id:     connectionID,
		send:   make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().Str("connection_id", connectionID).Logger(),
	}
}

// ID returns the transport-assigned connection id.
func (c *Client) ID() string { return c.id }

// ReadPump reads frames from the websocket, forwards them to the hub, and
// triggers disconnect cleanup when the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in ReadPump.")
		}
	}()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline.")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Unexpected websocket close.")
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid JSON frame.")
			continue
		}

		select {
		case c.hub.inbound <- inboundFrame{client: c, frame: frame}:
		case <-c.hub.stopChan:
			return
		}
	}
}

// WritePump writes queued frames to the websocket and keeps the heartbeat
// alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump.")
		}
	}()

	for {
		select {
		case raw, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline.")
				return
			}

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.logger.Info().Err(err).Msg("Error writing frame.")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping.")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues raw bytes for delivery, dropping the frame when the client
// falls too far behind. Delivery is best-effort at-most-once.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame.")
	}
}

// closeSend closes the send queue exactly once, ending the WritePump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
