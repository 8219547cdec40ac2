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

const scheduleColumns = `id, template_id, frequency, rules, next_run, last_run, is_active, status, topic, structure_id, rotation, created_at`

// CreateSchedule inserts a new schedule.
func (s *Store) CreateSchedule(ctx context.Context, tx store.DBTransaction, sched *store.Schedule) error {
	executor := s.getExecutor(tx)

	query := `
		INSERT INTO schedules (id, template_id, frequency, rules, next_run, last_run, is_active, status, topic, structure_id, rotation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := executor.ExecContext(ctx, query,
		sched.ID, sched.TemplateID, sched.Frequency, nullableJSON(sched.Rules),
		sched.NextRun, sched.LastRun, sched.IsActive, sched.Status,
		sched.Topic, sched.StructureID, sched.Rotation, sched.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule %s: %w", sched.ID, err)
	}

	return nil
}

// BulkCreateSchedules inserts a batch of schedules in one transaction.
// Used by bulk scheduling of researched topics.
func (s *Store) BulkCreateSchedules(ctx context.Context, schedules []*store.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sched := range schedules {
		if err := s.CreateSchedule(ctx, tx, sched); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetScheduleByID returns a schedule by its ID.
func (s *Store) GetScheduleByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	sched, err := scanSchedule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule %s: %w", id, err)
	}

	return sched, nil
}

// ListDueSchedules returns active schedules whose next_run has passed,
// oldest first, capped at limit.
func (s *Store) ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]store.Schedule, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE is_active AND next_run <= $1
		ORDER BY next_run ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due schedules query failed: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ListSchedules returns all schedules, optionally only active ones.
func (s *Store) ListSchedules(ctx context.Context, activeOnly bool) ([]store.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schedules query failed: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ClaimSchedule advances next_run from prev to next as a compare-and-set.
// This write is the lock: a poller that loses the race sees zero rows
// affected and must skip the schedule for this tick.
func (s *Store) ClaimSchedule(ctx context.Context, id uuid.UUID, prev, next time.Time) (bool, error) {
	query := `
		UPDATE schedules
		SET next_run = $3
		WHERE id = $1 AND next_run = $2 AND is_active
	`

	result, err := s.db.ExecContext(ctx, query, id, prev, next)
	if err != nil {
		return false, fmt.Errorf("failed to claim schedule %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// UpdateSchedule replaces the mutable fields of a schedule.
func (s *Store) UpdateSchedule(ctx context.Context, sched *store.Schedule) error {
	query := `
		UPDATE schedules
		SET template_id = $2, frequency = $3, rules = $4, next_run = $5,
		    is_active = $6, status = $7, topic = $8, structure_id = $9, rotation = $10
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		sched.ID, sched.TemplateID, sched.Frequency, nullableJSON(sched.Rules),
		sched.NextRun, sched.IsActive, sched.Status, sched.Topic,
		sched.StructureID, sched.Rotation,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule %s: %w", sched.ID, err)
	}

	return checkAffected(result)
}

// UpdateLastRun records the completion time of the latest run.
func (s *Store) UpdateLastRun(ctx context.Context, id uuid.UUID, lastRun time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET last_run = $2 WHERE id = $1`, id, lastRun)
	if err != nil {
		return fmt.Errorf("failed to update last_run for schedule %s: %w", id, err)
	}

	return checkAffected(result)
}

// DeactivateSchedule marks a schedule inactive with the given status.
// One-time schedules that fail terminally land here so they are never
// retried automatically again.
func (s *Store) DeactivateSchedule(ctx context.Context, id uuid.UUID, status store.ScheduleStatus, lastRun time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET is_active = FALSE, status = $2, last_run = $3 WHERE id = $1`,
		id, status, lastRun)
	if err != nil {
		return fmt.Errorf("failed to deactivate schedule %s: %w", id, err)
	}

	return checkAffected(result)
}

// DeleteSchedule removes a schedule.
func (s *Store) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}

	return checkAffected(result)
}

func scanSchedule(row *sql.Row) (*store.Schedule, error) {
	var sched store.Schedule
	var rules sql.NullString
	err := row.Scan(
		&sched.ID, &sched.TemplateID, &sched.Frequency, &rules,
		&sched.NextRun, &sched.LastRun, &sched.IsActive, &sched.Status,
		&sched.Topic, &sched.StructureID, &sched.Rotation, &sched.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rules.Valid {
		sched.Rules = []byte(rules.String)
	}
	return &sched, nil
}

func collectSchedules(rows *sql.Rows) ([]store.Schedule, error) {
	var schedules []store.Schedule
	for rows.Next() {
		var sched store.Schedule
		var rules sql.NullString
		if err := rows.Scan(
			&sched.ID, &sched.TemplateID, &sched.Frequency, &rules,
			&sched.NextRun, &sched.LastRun, &sched.IsActive, &sched.Status,
			&sched.Topic, &sched.StructureID, &sched.Rotation, &sched.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("schedule scan failed: %w", err)
		}
		if rules.Valid {
			sched.Rules = []byte(rules.String)
		}
		schedules = append(schedules, sched)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule rows error: %w", err)
	}

	return schedules, nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
