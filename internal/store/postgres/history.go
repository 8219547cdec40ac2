package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postforge/internal/store"

	"github.com/google/uuid"
)

const historyColumns = `id, uuid, run_type, status, template_id, schedule_id, artifact_id, error_message, created_at, completed_at`

// CreateHistory persists a new run record and returns its ID.
// The insert happens before any generation work so that a crash mid-run
// leaves a visible "processing" record for diagnosis.
func (s *Store) CreateHistory(ctx context.Context, rec *store.HistoryRecord) (int64, error) {
	query := `
		INSERT INTO history (uuid, run_type, status, template_id, schedule_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.UUID, rec.RunType, rec.Status, rec.TemplateID, rec.ScheduleID, rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create history record: %w", err)
	}

	return id, nil
}

// AppendHistoryLog appends one log entry to a run.
func (s *Store) AppendHistoryLog(ctx context.Context, entry *store.HistoryLogEntry) error {
	query := `
		INSERT INTO history_logs (history_id, log_type, message, input, output, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.HistoryID, entry.LogType, entry.Message,
		entry.Input, entry.Output, nullableJSON(entry.Context), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append history log: %w", err)
	}

	return nil
}

// CompleteHistory finalizes a run with a terminal status. The WHERE clause
// guards against double completion: only a record still in "processing"
// can transition, so the second completer sees zero rows affected.
func (s *Store) CompleteHistory(ctx context.Context, id int64, status store.HistoryStatus, artifactID, errorMessage *string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE history
		SET status = $2, artifact_id = $3, error_message = $4, completed_at = $5
		WHERE id = $1 AND status = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		id, status, artifactID, errorMessage, completedAt, store.HistoryStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to complete history %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// GetHistoryByID returns a run record.
func (s *Store) GetHistoryByID(ctx context.Context, id int64) (*store.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = $1`

	var rec store.HistoryRecord
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.UUID, &rec.RunType, &rec.Status, &rec.TemplateID,
		&rec.ScheduleID, &rec.ArtifactID, &rec.ErrorMessage, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get history %d: %w", id, err)
	}

	return &rec, nil
}

// ListHistory returns recent run records, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]store.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + historyColumns + ` FROM history ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var records []store.HistoryRecord
	for rows.Next() {
		var rec store.HistoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.UUID, &rec.RunType, &rec.Status, &rec.TemplateID,
			&rec.ScheduleID, &rec.ArtifactID, &rec.ErrorMessage, &rec.CreatedAt, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("history scan failed: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows error: %w", err)
	}

	return records, nil
}

// ListHistoryLogs returns log entries for a run after the given entry ID.
func (s *Store) ListHistoryLogs(ctx context.Context, historyID int64, afterID int64, limit int) ([]store.HistoryLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, history_id, log_type, message, input, output, context, created_at
		FROM history_logs
		WHERE history_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, historyID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("history logs query failed: %w", err)
	}
	defer rows.Close()

	var entries []store.HistoryLogEntry
	for rows.Next() {
		var entry store.HistoryLogEntry
		var logCtx sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.HistoryID, &entry.LogType, &entry.Message,
			&entry.Input, &entry.Output, &logCtx, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history log scan failed: %w", err)
		}
		if logCtx.Valid {
			entry.Context = []byte(logCtx.String)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history log rows error: %w", err)
	}

	return entries, nil
}

// CountCompletedBySchedule counts successful runs for a schedule.
func (s *Store) CountCompletedBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM history WHERE schedule_id = $1 AND status = $2`

	var count int64
	err := s.db.QueryRowContext(ctx, query, scheduleID, store.HistoryStatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed runs for schedule %s: %w", scheduleID, err)
	}

	return count, nil
}
