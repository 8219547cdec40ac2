package history

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"postforge/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistoryStore struct {
	store.HistoryStore

	created     []*store.HistoryRecord
	logs        []*store.HistoryLogEntry
	completions int
	completeOK  bool
}

func (f *fakeHistoryStore) CreateHistory(_ context.Context, rec *store.HistoryRecord) (int64, error) {
	f.created = append(f.created, rec)
	return int64(len(f.created)), nil
}

func (f *fakeHistoryStore) AppendHistoryLog(_ context.Context, entry *store.HistoryLogEntry) error {
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeHistoryStore) CompleteHistory(_ context.Context, _ int64, _ store.HistoryStatus, _, _ *string, _ time.Time) (bool, error) {
	f.completions++
	return f.completeOK, nil
}

func newTestRecorder(fs *fakeHistoryStore) *Recorder {
	return NewRecorder(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOpenPersistsProcessingRecord(t *testing.T) {
	fs := &fakeHistoryStore{completeOK: true}
	tmplID := uuid.New()

	run, err := newTestRecorder(fs).Open(context.Background(), "scheduled", &tmplID, nil)
	require.NoError(t, err)

	require.Len(t, fs.created, 1)
	rec := fs.created[0]
	assert.Equal(t, store.HistoryStatusProcessing, rec.Status)
	assert.Equal(t, "scheduled", rec.RunType)
	assert.Equal(t, &tmplID, rec.TemplateID)
	assert.Nil(t, rec.ScheduleID)
	assert.Equal(t, int64(1), run.ID())
	assert.NotEqual(t, uuid.Nil, run.UUID())
}

func TestRecordIOEncodesPayloads(t *testing.T) {
	fs := &fakeHistoryStore{completeOK: true}
	run, err := newTestRecorder(fs).Open(context.Background(), "manual", nil, nil)
	require.NoError(t, err)

	run.RecordIO(context.Background(), LogAIRequest, "content generation", "the prompt", "the response")

	require.Len(t, fs.logs, 1)
	entry := fs.logs[0]
	assert.Equal(t, LogAIRequest, entry.LogType)
	require.NotNil(t, entry.Input)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("the prompt")), *entry.Input)
	assert.Equal(t, "the response", DecodePayload(entry.Output))
}

func TestRecordIOCapsLargePayloads(t *testing.T) {
	fs := &fakeHistoryStore{completeOK: true}
	run, err := newTestRecorder(fs).Open(context.Background(), "manual", nil, nil)
	require.NoError(t, err)

	huge := strings.Repeat("x", maxPayloadBytes*2)
	run.RecordIO(context.Background(), LogAIResponse, "big output", "", huge)

	require.Len(t, fs.logs, 1)
	assert.Nil(t, fs.logs[0].Input)
	assert.Len(t, DecodePayload(fs.logs[0].Output), maxPayloadBytes)
}

func TestCompleteSuccessOnlyOnce(t *testing.T) {
	fs := &fakeHistoryStore{completeOK: true}
	run, err := newTestRecorder(fs).Open(context.Background(), "scheduled", nil, nil)
	require.NoError(t, err)

	require.NoError(t, run.CompleteSuccess(context.Background(), "post-9"))
	assert.ErrorIs(t, run.CompleteFailure(context.Background(), "too late"), ErrAlreadyCompleted)
	assert.Equal(t, 1, fs.completions)
}

func TestCompleteRacingWriterLoses(t *testing.T) {
	// The store reports the row was already finalized elsewhere.
	fs := &fakeHistoryStore{completeOK: false}
	run, err := newTestRecorder(fs).Open(context.Background(), "scheduled", nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, run.CompleteFailure(context.Background(), "boom"), ErrAlreadyCompleted)
}

func TestDecodePayloadPassesThroughPlainText(t *testing.T) {
	s := "not base64 at all!!!"
	assert.Equal(t, s, DecodePayload(&s))
	assert.Equal(t, "", DecodePayload(nil))
}
