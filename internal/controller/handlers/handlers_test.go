package handlers

import (
	"context"
	"database/sql"
	"time"

	"postforge/internal/resilience"
	"postforge/internal/schedule"
	"postforge/internal/store"

	"github.com/google/uuid"
)

// Mock transaction
type mockTx struct {
	commitErr error
}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error { return m.commitErr }

func (m *mockTx) Rollback() error { return nil }

// Mock Store
type mockStore struct {
	// Connection hooks
	beginTxErr error
	commitErr  error
	pingErr    error

	// Schedule hooks
	createScheduleErr error
	bulkCreateErr     error
	getScheduleResp   *store.Schedule
	getScheduleErr    error
	listSchedulesResp []store.Schedule
	listSchedulesErr  error
	deleteScheduleErr error

	// Template hooks
	createTemplateErr error
	getTemplateResp   *store.Template
	getTemplateErr    error
	listTemplatesResp []store.Template
	listTemplatesErr  error
	updateTemplateErr error
	deleteTemplateErr error

	// History hooks
	listHistoryResp     []store.HistoryRecord
	listHistoryErr      error
	getHistoryResp      *store.HistoryRecord
	getHistoryErr       error
	listHistoryLogsResp []store.HistoryLogEntry
	listHistoryLogsErr  error

	// API key hooks
	createAPIKeyErr error

	// Spies (to verify arguments passed by handlers)
	capturedSchedule   *store.Schedule
	capturedTemplate   *store.Template
	capturedBulk       []*store.Schedule
	capturedActiveOnly bool
	capturedKey        *store.APIKey
	capturedLimit      int
	capturedAfterID    int64
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	return &mockTx{commitErr: m.commitErr}, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockStore) CreateSchedule(ctx context.Context, tx store.DBTransaction, s *store.Schedule) error {
	m.capturedSchedule = s
	return m.createScheduleErr
}

func (m *mockStore) BulkCreateSchedules(ctx context.Context, schedules []*store.Schedule) error {
	m.capturedBulk = schedules
	return m.bulkCreateErr
}

func (m *mockStore) GetScheduleByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error) {
	return m.getScheduleResp, m.getScheduleErr
}

func (m *mockStore) ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]store.Schedule, error) {
	return nil, nil // Worker concern, not used by handlers
}

func (m *mockStore) ListSchedules(ctx context.Context, activeOnly bool) ([]store.Schedule, error) {
	m.capturedActiveOnly = activeOnly
	return m.listSchedulesResp, m.listSchedulesErr
}

func (m *mockStore) ClaimSchedule(ctx context.Context, id uuid.UUID, prev, next time.Time) (bool, error) {
	return false, nil // Worker concern, not used by handlers
}

func (m *mockStore) UpdateSchedule(ctx context.Context, s *store.Schedule) error {
	return nil
}

func (m *mockStore) UpdateLastRun(ctx context.Context, id uuid.UUID, lastRun time.Time) error {
	return nil
}

func (m *mockStore) DeactivateSchedule(ctx context.Context, id uuid.UUID, status store.ScheduleStatus, lastRun time.Time) error {
	return nil
}

func (m *mockStore) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return m.deleteScheduleErr
}

func (m *mockStore) CreateTemplate(ctx context.Context, tx store.DBTransaction, t *store.Template) error {
	m.capturedTemplate = t
	return m.createTemplateErr
}

func (m *mockStore) GetTemplateByID(ctx context.Context, id uuid.UUID) (*store.Template, error) {
	return m.getTemplateResp, m.getTemplateErr
}

func (m *mockStore) ListTemplates(ctx context.Context) ([]store.Template, error) {
	return m.listTemplatesResp, m.listTemplatesErr
}

func (m *mockStore) UpdateTemplate(ctx context.Context, t *store.Template) error {
	return m.updateTemplateErr
}

func (m *mockStore) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return m.deleteTemplateErr
}

func (m *mockStore) GetStructureByID(ctx context.Context, id uuid.UUID) (*store.Structure, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) GetDefaultStructure(ctx context.Context) (*store.Structure, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) ListActiveStructures(ctx context.Context) ([]store.Structure, error) {
	return nil, nil
}

func (m *mockStore) CreateHistory(ctx context.Context, rec *store.HistoryRecord) (int64, error) {
	return 0, nil
}

func (m *mockStore) AppendHistoryLog(ctx context.Context, entry *store.HistoryLogEntry) error {
	return nil
}

func (m *mockStore) CompleteHistory(ctx context.Context, id int64, status store.HistoryStatus, artifactID, errorMessage *string, completedAt time.Time) (bool, error) {
	return true, nil
}

func (m *mockStore) GetHistoryByID(ctx context.Context, id int64) (*store.HistoryRecord, error) {
	return m.getHistoryResp, m.getHistoryErr
}

func (m *mockStore) ListHistory(ctx context.Context, limit int) ([]store.HistoryRecord, error) {
	m.capturedLimit = limit
	return m.listHistoryResp, m.listHistoryErr
}

func (m *mockStore) ListHistoryLogs(ctx context.Context, historyID int64, afterID int64, limit int) ([]store.HistoryLogEntry, error) {
	m.capturedAfterID = afterID
	m.capturedLimit = limit
	return m.listHistoryLogsResp, m.listHistoryLogsErr
}

func (m *mockStore) CountCompletedBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *mockStore) CreateAPIKey(ctx context.Context, key *store.APIKey) error {
	m.capturedKey = key
	return m.createAPIKeyErr
}

func (m *mockStore) GetAPIKeyByHash(ctx context.Context, hash string) (*store.APIKey, error) {
	return nil, store.ErrNotFound // Handled by Auth Middleware, not Handlers
}

// Mock manual runner
type mockRunner struct {
	result     schedule.RunResult
	err        error
	capturedID uuid.UUID
}

func (m *mockRunner) RunNow(ctx context.Context, scheduleID uuid.UUID) (schedule.RunResult, error) {
	m.capturedID = scheduleID
	return m.result, m.err
}

// Mock resilience gate
type mockGate struct {
	status       resilience.Status
	breakerReset bool
	limiterReset bool
}

func (m *mockGate) Status() resilience.Status { return m.status }

func (m *mockGate) ResetBreaker() { m.breakerReset = true }

func (m *mockGate) ResetLimiter() { m.limiterReset = true }
