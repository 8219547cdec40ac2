// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"postforge/internal/resilience"
	"postforge/internal/schedule"
	"postforge/internal/store"
	"postforge/pkg/api"

	"github.com/google/uuid"
)

// StoreFactory combines the interfaces the controller needs.
type StoreFactory interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	Ping(ctx context.Context) error
	store.ScheduleStore
	store.TemplateStore
	store.StructureStore
	store.HistoryStore
	store.APIKeyStore
}

// ManualRunner triggers an immediate generation run for a schedule.
type ManualRunner interface {
	RunNow(ctx context.Context, scheduleID uuid.UUID) (schedule.RunResult, error)
}

// ResilienceGate exposes the AI gate's operational controls.
type ResilienceGate interface {
	Status() resilience.Status
	ResetBreaker()
	ResetLimiter()
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store  StoreFactory
	runner ManualRunner
	gate   ResilienceGate
}

// New creates a new Handlers instance.
func New(s StoreFactory, runner ManualRunner, gate ResilienceGate) *Handlers {
	return &Handlers{store: s, runner: runner, gate: gate}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
