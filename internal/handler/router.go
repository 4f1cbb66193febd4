/*
Package handler provides the HTTP handlers and routing setup for the chat
server.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting before delegating to the API and websocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"sockchat/internal/pkg/limiter"
	"sockchat/internal/pkg/logx"
	"sockchat/internal/pkg/resp"
)

const (
	// UploadRate / UploadBurst limit file uploads per client IP.
	UploadRate  = 0.5
	UploadBurst = 5

	// ConnectRate / ConnectBurst limit websocket handshakes per client IP.
	ConnectRate  = 1
	ConnectBurst = 10
)

// Router builds the HTTP routing table for the application: middleware, CORS,
// the REST API, the upload endpoint, and the websocket upgrade route.
func Router(deps *AppDeps) http.Handler {
	uploadLimiter := limiter.NewIPRateLimiter(rate.Limit(UploadRate), UploadBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Sockchat Server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/messages", HandleGetMessages(deps))
		api.Get("/users", HandleGetUsers(deps))
		api.Get("/rooms", HandleGetRooms(deps))

		api.With(uploadLimiter.Middleware).Post("/upload", HandleUpload(deps))
	})

	// Local-disk uploads are served directly in development.
	if deps.Config.S3BucketName == "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.Config.UploadDir)))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
