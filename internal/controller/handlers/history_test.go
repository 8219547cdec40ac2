package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postforge/internal/store"
	"postforge/pkg/api"

	"github.com/google/uuid"
)

func TestListHistory(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockSetup      func(*mockStore)
		expectedStatus int
		expectedLimit  int
	}{
		{
			name:           "Default Limit",
			query:          "",
			expectedStatus: http.StatusOK,
			expectedLimit:  50,
		},
		{
			name:           "Explicit Limit",
			query:          "?limit=5",
			expectedStatus: http.StatusOK,
			expectedLimit:  5,
		},
		{
			name:           "Limit Too Large",
			query:          "?limit=1000",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Limit Not A Number",
			query:          "?limit=abc",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "Store Failure",
			query: "",
			mockSetup: func(m *mockStore) {
				m.listHistoryErr = errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			h := newTestHandlers(mock, nil, nil)

			req := httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.ListHistory(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v body: %v",
					rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedLimit > 0 && mock.capturedLimit != tt.expectedLimit {
				t.Errorf("expected limit %d, got %d", tt.expectedLimit, mock.capturedLimit)
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	artifactID := "post-42"

	tests := []struct {
		name           string
		idParam        string
		mockSetup      func(*mockStore)
		expectedStatus int
	}{
		{
			name:    "Success",
			idParam: "12",
			mockSetup: func(m *mockStore) {
				m.getHistoryResp = &store.HistoryRecord{
					ID:         12,
					UUID:       uuid.New(),
					RunType:    "scheduled",
					Status:     store.HistoryStatusCompleted,
					ArtifactID: &artifactID,
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid ID Format",
			idParam:        "twelve",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "Not Found",
			idParam: "99",
			mockSetup: func(m *mockStore) {
				m.getHistoryErr = store.ErrNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			h := newTestHandlers(mock, nil, nil)

			mux := http.NewServeMux()
			mux.HandleFunc("GET /history/{id}", h.GetHistory)

			req := httptest.NewRequest(http.MethodGet, "/history/"+tt.idParam, nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v body: %v",
					rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestGetHistoryLogsDecodesPayloads(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("raw prompt text"))
	mock := &mockStore{listHistoryLogsResp: []store.HistoryLogEntry{
		{
			ID:        3,
			HistoryID: 12,
			LogType:   "ai_request",
			Message:   "content request",
			Input:     &encoded,
			CreatedAt: time.Now().UTC(),
		},
	}}
	h := newTestHandlers(mock, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /history/{id}/logs", h.GetHistoryLogs)

	req := httptest.NewRequest(http.MethodGet, "/history/12/logs?after=2", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if mock.capturedAfterID != 2 {
		t.Errorf("expected after cursor 2, got %d", mock.capturedAfterID)
	}

	var out []api.HistoryLogEntry
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].Input != "raw prompt text" {
		t.Errorf("payload should be decoded for the API, got %q", out[0].Input)
	}
}

func TestGetHistoryLogsBadCursor(t *testing.T) {
	h := newTestHandlers(&mockStore{}, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /history/{id}/logs", h.GetHistoryLogs)

	req := httptest.NewRequest(http.MethodGet, "/history/12/logs?after=xyz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad cursor, got %d", rr.Code)
	}
}
