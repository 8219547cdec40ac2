package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// ScheduleStore handles persistence of generation schedules.
type ScheduleStore interface {
	// CreateSchedule inserts a new schedule.
	CreateSchedule(ctx context.Context, tx DBTransaction, s *Schedule) error

	// BulkCreateSchedules inserts a batch of schedules in one transaction.
	BulkCreateSchedules(ctx context.Context, schedules []*Schedule) error

	// GetScheduleByID returns a schedule by its ID.
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error)

	// ListDueSchedules returns active schedules with next_run <= now,
	// oldest first, capped at limit.
	ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]Schedule, error)

	// ListSchedules returns all schedules, optionally only active ones.
	ListSchedules(ctx context.Context, activeOnly bool) ([]Schedule, error)

	// ClaimSchedule atomically advances next_run from prev to next.
	// It reports false when another process claimed the schedule first
	// (compare-and-set on the previous next_run value).
	ClaimSchedule(ctx context.Context, id uuid.UUID, prev, next time.Time) (bool, error)

	// UpdateSchedule replaces the mutable fields of a schedule.
	UpdateSchedule(ctx context.Context, s *Schedule) error

	// UpdateLastRun records the completion time of the latest run.
	UpdateLastRun(ctx context.Context, id uuid.UUID, lastRun time.Time) error

	// DeactivateSchedule marks a schedule inactive with the given status.
	DeactivateSchedule(ctx context.Context, id uuid.UUID, status ScheduleStatus, lastRun time.Time) error

	// DeleteSchedule removes a schedule.
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
}

// TemplateStore handles persistence of generation templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, tx DBTransaction, t *Template) error
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	UpdateTemplate(ctx context.Context, t *Template) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

// StructureStore handles persistence of article structures.
type StructureStore interface {
	GetStructureByID(ctx context.Context, id uuid.UUID) (*Structure, error)
	GetDefaultStructure(ctx context.Context) (*Structure, error)
	ListActiveStructures(ctx context.Context) ([]Structure, error)
}

// HistoryStore handles the append-only audit trail of generation runs.
type HistoryStore interface {
	// CreateHistory persists a new run record and returns its ID.
	// The record must be durable before any generation work starts so
	// crash-after-open runs remain visible for diagnosis.
	CreateHistory(ctx context.Context, rec *HistoryRecord) (int64, error)

	// AppendHistoryLog appends one log entry to a run.
	AppendHistoryLog(ctx context.Context, entry *HistoryLogEntry) error

	// CompleteHistory finalizes a run with a terminal status. It reports
	// false when the run was already completed.
	CompleteHistory(ctx context.Context, id int64, status HistoryStatus, artifactID, errorMessage *string, completedAt time.Time) (bool, error)

	// GetHistoryByID returns a run record.
	GetHistoryByID(ctx context.Context, id int64) (*HistoryRecord, error)

	// ListHistory returns recent run records, newest first.
	ListHistory(ctx context.Context, limit int) ([]HistoryRecord, error)

	// ListHistoryLogs returns log entries for a run after the given entry ID.
	ListHistoryLogs(ctx context.Context, historyID int64, afterID int64, limit int) ([]HistoryLogEntry, error)

	// CountCompletedBySchedule counts successful runs for a schedule,
	// used by the structure rotation selector.
	CountCompletedBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error)
}

// MediaStore looks up media-library items for fixed featured images.
type MediaStore interface {
	GetMediaByIDs(ctx context.Context, ids []string) ([]MediaItem, error)
}

// APIKeyStore handles retrieving API keys for controller authentication.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *APIKey) error
	GetAPIKeyByHash(ctx context.Context, hash string) (*APIKey, error)
}
