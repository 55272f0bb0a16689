// Package api provides the HTTP handlers for the Curtain backend REST API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"curtainbe/internal/channel"
	"curtainbe/internal/domain"
	"curtainbe/internal/middleware"
	"curtainbe/internal/service/compare"
	"curtainbe/internal/service/session"
)

// Handler implements the REST API on top of the service layer.
type Handler struct {
	compare  *compare.Service
	sessions *session.Service
	keys     domain.APIKeyRepository
	ws       *channel.Handler
	logger   *slog.Logger
}

// NewHandler creates an API handler.
func NewHandler(
	compareSvc *compare.Service,
	sessionSvc *session.Service,
	keys domain.APIKeyRepository,
	ws *channel.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		compare:  compareSvc,
		sessions: sessionSvc,
		keys:     keys,
		ws:       ws,
		logger:   logger.With("component", "api"),
	}
}

// RouterConfig carries the middleware the router is assembled with.
type RouterConfig struct {
	Auth *middleware.Authenticator
	// MediaDir, when non-empty, enables serving stored session payloads from
	// the local filesystem under /media/. Unset when S3 storage is used.
	MediaDir string
}

// Routes mounts all API endpoints on a chi router. Authentication is
// optional on the public surface (comparison, session reads) and required
// for destructive and key-management operations.
func (h *Handler) Routes(r chi.Router, cfg RouterConfig) {
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Optional)
		r.Post("/compare", h.SubmitComparison)
		r.Get("/jobs/{jobID}", h.GetJob)
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{linkID}", h.GetSession)
		r.Get("/stats", h.GetStats)
	})

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Required)
		r.Delete("/sessions/{linkID}", h.DeleteSession)
		r.Post("/api-keys", h.CreateAPIKey)
		r.Get("/api-keys", h.ListAPIKeys)
		r.Delete("/api-keys", h.DeleteAPIKey)
	})

	r.Get("/ws/{channelID}/{personalID}", h.ws.ServeWS)

	if cfg.MediaDir != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir)))
		r.Get("/media/*", fs.ServeHTTP)
	}
}

// currentUserID returns the authenticated user's ID, or "" for anonymous
// requests.
func currentUserID(r *http.Request) string {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		return u.ID
	}
	return ""
}
