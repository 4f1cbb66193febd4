/*
Package handler provides the HTTP handlers and routing setup for the chat
server.

This file contains the read-only REST API over the hub's stores: paginated
room history, the identity directory snapshot, and the room directory
snapshot.
*/
package handler

import (
	"net/http"
	"strconv"

	"sockchat/internal/app/chat"
	"sockchat/internal/pkg/resp"
)

const (
	// DefaultPageLimit is the message page size when none is requested.
	DefaultPageLimit = 20

	// MaxPageLimit caps the requested message page size.
	MaxPageLimit = 100
)

// MessagesPage is the response payload of GET /api/messages.
type MessagesPage struct {
	Room     string         `json:"room"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
	Total    int            `json:"total"`
	Messages []chat.Message `json:"messages"`
}

// HandleGetMessages returns one page of a room's retained history, newest
// page first.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		room := chat.Normalize(query.Get("room"))

		page, err := strconv.Atoi(query.Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(query.Get("limit"))
		if err != nil || limit < 1 {
			limit = DefaultPageLimit
		}
		if limit > MaxPageLimit {
			limit = MaxPageLimit
		}

		messages, total := deps.Hub.Store().PageByRoom(room, page, limit)

		resp.RespondSuccess(w, r, MessagesPage{
			Room:     room,
			Page:     page,
			Limit:    limit,
			Total:    total,
			Messages: messages,
		})
	}
}

// HandleGetUsers returns the identity directory snapshot, online and offline
// users mixed with their last-seen timestamps.
func HandleGetUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Hub.Identities().ListAll())
	}
}

// HandleGetRooms returns the room directory snapshot in creation order.
func HandleGetRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Hub.Rooms().List())
	}
}
