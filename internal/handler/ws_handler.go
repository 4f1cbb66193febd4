/*
Package handler provides the HTTP handlers and routing setup for the chat
server.

This file contains the websocket upgrade handler: rate limiting, connection id
minting, and starting the client pumps.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"sockchat/internal/app/chat"
	"sockchat/internal/pkg/errs"
	"sockchat/internal/pkg/limiter"
	"sockchat/internal/pkg/logx"
	"sockchat/internal/pkg/randx"
	"sockchat/internal/pkg/resp"
)

// HandleWebSocket creates the HandlerFunc that upgrades HTTP connections to
// websocket and registers them with the hub in the Anonymous state. The
// protocol handshake (user_join) happens over the socket itself.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connectionID := randx.ConnectionID()
		client := chat.NewClient(deps.Hub, conn, connectionID)

		go client.WritePump()

		deps.Hub.RegisterClient(client)

		logx.Info("WebSocket connection established", "connection_id", connectionID)

		client.ReadPump()
	}
}
