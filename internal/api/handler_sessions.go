package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"curtainbe/internal/domain"
	"curtainbe/internal/middleware"
	"curtainbe/internal/service/session"
)

type createSessionRequest struct {
	Description string           `json:"description"`
	CurtainType string           `json:"curtain_type"`
	Enable      bool             `json:"enable"`
	Permanent   bool             `json:"permanent"`
	Content     *session.Content `json:"content"`
}

type sessionResponse struct {
	ID          string   `json:"id"`
	LinkID      string   `json:"link_id"`
	Description string   `json:"description"`
	CurtainType string   `json:"curtain_type"`
	Enable      bool     `json:"enable"`
	Permanent   bool     `json:"permanent"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
	Owners      []string `json:"owners,omitempty"`
}

func sessionToAPI(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		LinkID:      s.LinkID,
		Description: s.Description,
		CurtainType: string(s.CurtainType),
		Enable:      s.Enable,
		Permanent:   s.Permanent,
		Created:     s.CreatedAt.Format(time.RFC3339),
		Updated:     s.UpdatedAt.Format(time.RFC3339),
		Owners:      s.OwnerIDs,
	}
}

// CreateSession handles POST /sessions. Anonymous creation is allowed; such
// sessions have no owners and are therefore public.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if body.Content == nil {
		writeError(w, domain.ErrValidation("session content is required"))
		return
	}

	created, err := h.sessions.Create(r.Context(), currentUserID(r), domain.CreateSessionRequest{
		Description: body.Description,
		CurtainType: domain.CurtainType(body.CurtainType),
		Enable:      body.Enable,
		Permanent:   body.Permanent,
	}, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionToAPI(created))
}

// GetSession handles GET /sessions/{linkID}, returning session metadata
// subject to the visibility rule.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "linkID"), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(sess))
}

// DeleteSession handles DELETE /sessions/{linkID}. Owners and staff only.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "linkID"), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /stats with session counts per curtain type.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.sessions.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var total int64
	byType := make(map[string]int64, len(counts))
	for t, n := range counts {
		byType[string(t)] = n
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": byType,
		"total":    total,
	})
}
