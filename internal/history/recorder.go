// Package history records generation runs and their append-only logs.
package history

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"postforge/internal/store"

	"github.com/google/uuid"
)

// Log entry types.
const (
	LogActivity   = "activity"
	LogAIRequest  = "ai_request"
	LogAIResponse = "ai_response"
	LogError      = "error"
	LogWarning    = "warning"
	LogInfo       = "info"
	LogDebug      = "debug"
	LogPlain      = "log"
)

// ErrAlreadyCompleted is returned when a run receives a second
// terminal status. The first completion always wins.
var ErrAlreadyCompleted = errors.New("history: run already completed")

// maxPayloadBytes caps stored request/response payloads so one huge
// model response cannot bloat the audit table.
const maxPayloadBytes = 64 * 1024

// Recorder opens runs against the history store.
type Recorder struct {
	store  store.HistoryStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder builds a recorder.
func NewRecorder(st store.HistoryStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: st, logger: logger, now: time.Now}
}

// Open persists a new run in processing state and returns its handle.
// The row is durable before this returns, so a crash mid-run leaves a
// visible processing record for diagnosis.
func (r *Recorder) Open(ctx context.Context, runType string, templateID, scheduleID *uuid.UUID) (*Run, error) {
	rec := &store.HistoryRecord{
		UUID:       uuid.New(),
		RunType:    runType,
		Status:     store.HistoryStatusProcessing,
		TemplateID: templateID,
		ScheduleID: scheduleID,
	}

	id, err := r.store.CreateHistory(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to open history run: %w", err)
	}

	return &Run{recorder: r, id: id, uuid: rec.UUID}, nil
}

// Run is a handle on one open history record. Logging is best-effort:
// a failed log write is reported to the process logger and dropped,
// never allowed to fail the generation itself.
type Run struct {
	recorder *Recorder
	id       int64
	uuid     uuid.UUID

	mu        sync.Mutex
	completed bool
}

// ID returns the run's history record ID.
func (run *Run) ID() int64 { return run.id }

// UUID returns the run's public identifier.
func (run *Run) UUID() uuid.UUID { return run.uuid }

// Record appends a plain log entry.
func (run *Run) Record(ctx context.Context, logType, message string) {
	run.append(ctx, &store.HistoryLogEntry{
		HistoryID: run.id,
		LogType:   logType,
		Message:   message,
	})
}

// RecordIO appends a log entry carrying request and response payloads.
// Payloads are length-capped and base64 encoded so prompt text and
// model output survive storage untouched by escaping.
func (run *Run) RecordIO(ctx context.Context, logType, message, input, output string) {
	run.append(ctx, &store.HistoryLogEntry{
		HistoryID: run.id,
		LogType:   logType,
		Message:   message,
		Input:     encodePayload(input),
		Output:    encodePayload(output),
	})
}

// RecordContext appends a log entry with a structured context document.
func (run *Run) RecordContext(ctx context.Context, logType, message string, fields map[string]any) {
	entry := &store.HistoryLogEntry{
		HistoryID: run.id,
		LogType:   logType,
		Message:   message,
	}
	if len(fields) > 0 {
		if raw, err := json.Marshal(fields); err == nil {
			entry.Context = raw
		}
	}
	run.append(ctx, entry)
}

func (run *Run) append(ctx context.Context, entry *store.HistoryLogEntry) {
	if err := run.recorder.store.AppendHistoryLog(ctx, entry); err != nil {
		run.recorder.logger.Error("failed to append history log",
			"history_id", run.id, "log_type", entry.LogType, "error", err)
	}
}

// CompleteSuccess marks the run completed with the produced artifact.
func (run *Run) CompleteSuccess(ctx context.Context, artifactID string) error {
	return run.complete(ctx, store.HistoryStatusCompleted, &artifactID, nil)
}

// CompleteFailure marks the run failed with the terminal error.
func (run *Run) CompleteFailure(ctx context.Context, errMsg string) error {
	return run.complete(ctx, store.HistoryStatusFailed, nil, &errMsg)
}

func (run *Run) complete(ctx context.Context, status store.HistoryStatus, artifactID, errMsg *string) error {
	run.mu.Lock()
	if run.completed {
		run.mu.Unlock()
		return ErrAlreadyCompleted
	}
	run.completed = true
	run.mu.Unlock()

	ok, err := run.recorder.store.CompleteHistory(ctx, run.id, status, artifactID, errMsg, run.recorder.now())
	if err != nil {
		return fmt.Errorf("failed to complete history run %d: %w", run.id, err)
	}
	if !ok {
		// Another writer finalized the row first.
		return ErrAlreadyCompleted
	}
	return nil
}

// encodePayload prepares a request or response body for storage.
func encodePayload(s string) *string {
	if s == "" {
		return nil
	}
	if len(s) > maxPayloadBytes {
		s = s[:maxPayloadBytes]
	}
	enc := base64.StdEncoding.EncodeToString([]byte(s))
	return &enc
}

// DecodePayload reverses encodePayload for display surfaces.
func DecodePayload(p *string) string {
	if p == nil {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(*p)
	if err != nil {
		return *p
	}
	return string(raw)
}
