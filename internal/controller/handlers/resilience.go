package handlers

import (
	"encoding/json"
	"net/http"

	"postforge/pkg/api"
)

// ResilienceStatus handles GET /resilience/status.
func (h *Handlers) ResilienceStatus(w http.ResponseWriter, r *http.Request) {
	st := h.gate.Status()
	h.respondJson(w, http.StatusOK, api.ResilienceStatusResponse{
		BreakerState:     st.BreakerState,
		ConsecutiveFails: st.ConsecutiveFails,
		WindowRequests:   st.WindowRequests,
		WindowLimit:      st.WindowLimit,
	})
}

// ResetResilience handles POST /resilience/reset.
func (h *Handlers) ResetResilience(w http.ResponseWriter, r *http.Request) {
	var req api.ResetResilienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Target {
	case "breaker":
		h.gate.ResetBreaker()
	case "limiter":
		h.gate.ResetLimiter()
	case "all", "":
		h.gate.ResetBreaker()
		h.gate.ResetLimiter()
	default:
		h.httpError(w, "Unknown reset target", http.StatusBadRequest)
		return
	}

	h.ResilienceStatus(w, r)
}
