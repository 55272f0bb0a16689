package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"curtainbe/internal/domain"
	"curtainbe/internal/middleware"
)

type apiKeyRequest struct {
	Name string `json:"name"`
}

type apiKeyResponse struct {
	Name    string `json:"name"`
	Created string `json:"created"`
}

// CreateAPIKey handles POST /api-keys. The plaintext key is returned exactly
// once; only its hash is stored.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var body apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if body.Name == "" {
		writeError(w, domain.ErrValidation("a key name is required"))
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		writeError(w, fmt.Errorf("generate key: %w", err))
		return
	}
	key := hex.EncodeToString(raw)

	if _, err := h.keys.Create(r.Context(), &domain.APIKey{
		UserID:  user.ID,
		Name:    body.Name,
		KeyHash: middleware.HashAPIKey(key),
	}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// ListAPIKeys handles GET /api-keys, returning key names without hashes.
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	keys, err := h.keys.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeyResponse{
			Name:    k.Name,
			Created: k.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteAPIKey handles DELETE /api-keys with a {name} body.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var body apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	if err := h.keys.DeleteByName(r.Context(), user.ID, body.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
