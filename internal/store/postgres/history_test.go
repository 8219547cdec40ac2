package postgres

import (
	"context"
	"testing"
	"time"

	"postforge/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCreateHistory(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	ctx := context.Background()
	runUUID := uuid.New()
	templateID := uuid.New()
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO history`).
		WithArgs(runUUID, "schedule_execution", store.HistoryStatusProcessing, &templateID, nil, createdAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store_.CreateHistory(ctx, &store.HistoryRecord{
		UUID:       runUUID,
		RunType:    "schedule_execution",
		Status:     store.HistoryStatusProcessing,
		TemplateID: &templateID,
		CreatedAt:  createdAt,
	})
	if err != nil {
		t.Fatalf("CreateHistory failed: %v", err)
	}
	if id != 7 {
		t.Errorf("got id %d, want 7", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCompleteHistory_Once(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	ctx := context.Background()
	artifactID := "post-42"
	completedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE history`).
		WithArgs(int64(7), store.HistoryStatusCompleted, &artifactID, nil, completedAt, store.HistoryStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store_.CompleteHistory(ctx, 7, store.HistoryStatusCompleted, &artifactID, nil, completedAt)
	if err != nil {
		t.Fatalf("CompleteHistory failed: %v", err)
	}
	if !ok {
		t.Error("expected completion to apply")
	}
}

func TestCompleteHistory_AlreadyCompleted(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	ctx := context.Background()
	errMsg := "ai call failed"
	completedAt := time.Now().UTC()

	// The record is already terminal; the guarded UPDATE matches nothing.
	mock.ExpectExec(`UPDATE history`).
		WithArgs(int64(7), store.HistoryStatusFailed, nil, &errMsg, completedAt, store.HistoryStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store_.CompleteHistory(ctx, 7, store.HistoryStatusFailed, nil, &errMsg, completedAt)
	if err != nil {
		t.Fatalf("CompleteHistory failed: %v", err)
	}
	if ok {
		t.Error("expected second completion to be rejected")
	}
}

func TestAppendHistoryLog(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	ctx := context.Background()
	input := "prompt text"
	createdAt := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO history_logs`).
		WithArgs(int64(7), "ai_request", "Requesting AI generation for content", &input, nil, `{"component":"content"}`, createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store_.AppendHistoryLog(ctx, &store.HistoryLogEntry{
		HistoryID: 7,
		LogType:   "ai_request",
		Message:   "Requesting AI generation for content",
		Input:     &input,
		Context:   []byte(`{"component":"content"}`),
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("AppendHistoryLog failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCountCompletedBySchedule(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	ctx := context.Background()
	scheduleID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM history`).
		WithArgs(scheduleID, store.HistoryStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := store_.CountCompletedBySchedule(ctx, scheduleID)
	if err != nil {
		t.Fatalf("CountCompletedBySchedule failed: %v", err)
	}
	if count != 3 {
		t.Errorf("got count %d, want 3", count)
	}
}
