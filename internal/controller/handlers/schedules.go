package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"postforge/internal/schedule"
	"postforge/internal/store"
	"postforge/pkg/api"

	"github.com/google/uuid"
)

// CreateSchedule handles POST /schedules.
func (h *Handlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		h.httpError(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	if !schedule.ValidFrequency(schedule.Frequency(req.Frequency)) {
		h.httpError(w, "Unknown frequency", http.StatusBadRequest)
		return
	}
	if _, err := h.store.GetTemplateByID(ctx, templateID); err != nil {
		h.httpError(w, "Related template not found", http.StatusNotFound)
		return
	}

	rules := req.Rules
	if len(rules) > 0 {
		if _, err := schedule.ParseRules(rules); err != nil {
			h.httpError(w, "Invalid rules document", http.StatusBadRequest)
			return
		}
	}

	now := time.Now().UTC()
	nextRun := now
	if req.StartAt != nil {
		nextRun = req.StartAt.UTC()
	}

	sched := &store.Schedule{
		ID:         uuid.New(),
		TemplateID: templateID,
		Frequency:  req.Frequency,
		Rules:      rules,
		NextRun:    nextRun,
		IsActive:   true,
		Status:     store.ScheduleStatusActive,
		Rotation:   req.Rotation,
		CreatedAt:  now,
	}
	if req.Topic != "" {
		sched.Topic = &req.Topic
	}
	if req.StructureID != "" {
		structureID, err := uuid.Parse(req.StructureID)
		if err != nil {
			h.httpError(w, "Invalid structure id", http.StatusBadRequest)
			return
		}
		sched.StructureID = &structureID
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	if err := h.store.CreateSchedule(ctx, tx, sched); err != nil {
		h.httpError(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		h.httpError(w, "Failed to commit transaction", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.CreateScheduleResponse{
		ScheduleID: sched.ID.String(),
		NextRun:    sched.NextRun.Format(time.RFC3339),
	})
}

// BulkCreateSchedules handles POST /schedules/bulk. One schedule is
// created per topic; all share the template and cadence.
func (h *Handlers) BulkCreateSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.BulkCreateSchedulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Topics) == 0 {
		h.httpError(w, "At least one topic is required", http.StatusBadRequest)
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		h.httpError(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	if !schedule.ValidFrequency(schedule.Frequency(req.Frequency)) {
		h.httpError(w, "Unknown frequency", http.StatusBadRequest)
		return
	}
	if _, err := h.store.GetTemplateByID(ctx, templateID); err != nil {
		h.httpError(w, "Related template not found", http.StatusNotFound)
		return
	}

	now := time.Now().UTC()
	nextRun := now
	if req.StartAt != nil {
		nextRun = req.StartAt.UTC()
	}

	schedules := make([]*store.Schedule, 0, len(req.Topics))
	ids := make([]string, 0, len(req.Topics))
	for _, topic := range req.Topics {
		topic := topic
		s := &store.Schedule{
			ID:         uuid.New(),
			TemplateID: templateID,
			Frequency:  req.Frequency,
			NextRun:    nextRun,
			IsActive:   true,
			Status:     store.ScheduleStatusActive,
			Topic:      &topic,
			Rotation:   req.Rotation,
			CreatedAt:  now,
		}
		schedules = append(schedules, s)
		ids = append(ids, s.ID.String())
	}

	if err := h.store.BulkCreateSchedules(ctx, schedules); err != nil {
		h.httpError(w, "Failed to create schedules", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.BulkCreateSchedulesResponse{ScheduleIDs: ids})
}

// ListSchedules handles GET /schedules.
func (h *Handlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	schedules, err := h.store.ListSchedules(r.Context(), activeOnly)
	if err != nil {
		h.httpError(w, "Failed to list schedules", http.StatusInternalServerError)
		return
	}

	out := make([]api.Schedule, 0, len(schedules))
	for i := range schedules {
		out = append(out, scheduleToAPI(&schedules[i]))
	}
	h.respondJson(w, http.StatusOK, out)
}

// GetSchedule handles GET /schedules/{id}.
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid schedule id", http.StatusBadRequest)
		return
	}

	sched, err := h.store.GetScheduleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to get schedule", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, scheduleToAPI(sched))
}

// DeleteSchedule handles DELETE /schedules/{id}.
func (h *Handlers) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid schedule id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteSchedule(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to delete schedule", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusNoContent, nil)
}

// RunSchedule handles POST /schedules/{id}/run. The run executes
// synchronously; the regular cadence is untouched.
func (h *Handlers) RunSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid schedule id", http.StatusBadRequest)
		return
	}

	result, err := h.runner.RunNow(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Schedule not found", http.StatusNotFound)
			return
		}
		// The run record, if any, carries the diagnosis.
		h.respondJson(w, http.StatusBadGateway, api.RunNowResponse{HistoryID: result.HistoryID})
		return
	}

	h.respondJson(w, http.StatusOK, api.RunNowResponse{
		HistoryID:  result.HistoryID,
		ArtifactID: result.ArtifactID,
	})
}

func scheduleToAPI(s *store.Schedule) api.Schedule {
	out := api.Schedule{
		ID:         s.ID.String(),
		TemplateID: s.TemplateID.String(),
		Frequency:  s.Frequency,
		NextRun:    s.NextRun,
		LastRun:    s.LastRun,
		IsActive:   s.IsActive,
		Status:     string(s.Status),
		Rotation:   s.Rotation,
		CreatedAt:  s.CreatedAt,
	}
	if s.Topic != nil {
		out.Topic = *s.Topic
	}
	return out
}
