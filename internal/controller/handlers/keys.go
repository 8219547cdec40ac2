package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"postforge/internal/auth"
	"postforge/internal/store"
	"postforge/pkg/api"

	"github.com/google/uuid"
)

// CreateAPIKey handles POST /keys. The plaintext key appears in the
// response exactly once; only its hash is stored.
func (h *Handlers) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.httpError(w, "Name is required", http.StatusBadRequest)
		return
	}

	plainKey, err := auth.GenerateKey()
	if err != nil {
		h.httpError(w, "Failed to generate key", http.StatusInternalServerError)
		return
	}

	key := &store.APIKey{
		ID:        uuid.New(),
		Name:      req.Name,
		KeyHash:   auth.HashKey(plainKey),
		RateLimit: req.RateLimit,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		h.httpError(w, "Failed to store key", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.CreateAPIKeyResponse{
		KeyID: key.ID.String(),
		Key:   plainKey,
	})
}
