package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postforge/internal/resilience"
)

func TestResilienceStatus(t *testing.T) {
	gate := &mockGate{status: resilience.Status{
		BreakerState:     "open",
		ConsecutiveFails: 5,
		WindowRequests:   12,
		WindowLimit:      20,
	}}
	h := newTestHandlers(&mockStore{}, nil, gate)

	req := httptest.NewRequest(http.MethodGet, "/resilience/status", nil)
	rr := httptest.NewRecorder()
	h.ResilienceStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"breaker_state":"open"`) {
		t.Errorf("body missing breaker state: %s", rr.Body.String())
	}
}

func TestResetResilience(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		wantBreaker    bool
		wantLimiter    bool
	}{
		{
			name:           "Breaker Only",
			body:           `{"target":"breaker"}`,
			expectedStatus: http.StatusOK,
			wantBreaker:    true,
		},
		{
			name:           "Limiter Only",
			body:           `{"target":"limiter"}`,
			expectedStatus: http.StatusOK,
			wantLimiter:    true,
		},
		{
			name:           "All",
			body:           `{"target":"all"}`,
			expectedStatus: http.StatusOK,
			wantBreaker:    true,
			wantLimiter:    true,
		},
		{
			name:           "Empty Target Resets Both",
			body:           `{}`,
			expectedStatus: http.StatusOK,
			wantBreaker:    true,
			wantLimiter:    true,
		},
		{
			name:           "Unknown Target",
			body:           `{"target":"everything"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid JSON",
			body:           `{bad`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := &mockGate{}
			h := newTestHandlers(&mockStore{}, nil, gate)

			req := httptest.NewRequest(http.MethodPost, "/resilience/reset", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ResetResilience(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v body: %v",
					rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if gate.breakerReset != tt.wantBreaker {
				t.Errorf("breaker reset = %v, want %v", gate.breakerReset, tt.wantBreaker)
			}
			if gate.limiterReset != tt.wantLimiter {
				t.Errorf("limiter reset = %v, want %v", gate.limiterReset, tt.wantLimiter)
			}
		})
	}
}
