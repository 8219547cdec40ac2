package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"postforge/internal/history"
	"postforge/internal/store"
	"postforge/pkg/api"
)

// ListHistory handles GET /history.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 500 {
			h.httpError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.store.ListHistory(r.Context(), limit)
	if err != nil {
		h.httpError(w, "Failed to list history", http.StatusInternalServerError)
		return
	}

	out := make([]api.HistoryRecord, 0, len(records))
	for i := range records {
		out = append(out, historyToAPI(&records[i]))
	}
	h.respondJson(w, http.StatusOK, out)
}

// GetHistory handles GET /history/{id}.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.httpError(w, "Invalid history id", http.StatusBadRequest)
		return
	}

	rec, err := h.store.GetHistoryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "History record not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to get history record", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, historyToAPI(rec))
}

// GetHistoryLogs handles GET /history/{id}/logs. Supports cursor
// pagination via the after query parameter.
func (h *Handlers) GetHistoryLogs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.httpError(w, "Invalid history id", http.StatusBadRequest)
		return
	}

	var afterID int64
	if v := r.URL.Query().Get("after"); v != "" {
		afterID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.httpError(w, "Invalid after cursor", http.StatusBadRequest)
			return
		}
	}

	entries, err := h.store.ListHistoryLogs(r.Context(), id, afterID, 200)
	if err != nil {
		h.httpError(w, "Failed to list history logs", http.StatusInternalServerError)
		return
	}

	out := make([]api.HistoryLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.HistoryLogEntry{
			ID:        e.ID,
			LogType:   e.LogType,
			Message:   e.Message,
			Input:     history.DecodePayload(e.Input),
			Output:    history.DecodePayload(e.Output),
			CreatedAt: e.CreatedAt,
		})
	}
	h.respondJson(w, http.StatusOK, out)
}

func historyToAPI(rec *store.HistoryRecord) api.HistoryRecord {
	out := api.HistoryRecord{
		ID:          rec.ID,
		UUID:        rec.UUID.String(),
		RunType:     rec.RunType,
		Status:      string(rec.Status),
		CreatedAt:   rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
	}
	if rec.TemplateID != nil {
		out.TemplateID = rec.TemplateID.String()
	}
	if rec.ScheduleID != nil {
		out.ScheduleID = rec.ScheduleID.String()
	}
	if rec.ArtifactID != nil {
		out.ArtifactID = *rec.ArtifactID
	}
	if rec.ErrorMessage != nil {
		out.ErrorMessage = *rec.ErrorMessage
	}
	return out
}
