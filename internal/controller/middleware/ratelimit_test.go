package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"postforge/internal/store"

	"github.com/google/uuid"
)

func requestWithKey(key *store.APIKey) *http.Request {
	ctx := context.WithValue(context.Background(), apiKeyKey{}, key)
	return httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
}

func TestRateLimitMiddleware_NoKeyInContext(t *testing.T) {
	middleware := RateLimitMiddleware()

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called when no key in context")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRateLimitMiddleware_AllowsRequestUnderLimit(t *testing.T) {
	middleware := RateLimitMiddleware()

	handlerCalled := false
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	key := &store.APIKey{ID: uuid.New(), Name: "ops", RateLimit: 100}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithKey(key))

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if !handlerCalled {
		t.Error("expected handler to be called")
	}
}

func TestRateLimitMiddleware_RejectsRequestOverLimit(t *testing.T) {
	middleware := RateLimitMiddleware()

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Limit of 1 per second with burst 1: the second request in the
	// same instant must be rejected.
	key := &store.APIKey{ID: uuid.New(), Name: "ops", RateLimit: 1}

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, requestWithKey(key))
	if rr1.Code != http.StatusOK {
		t.Errorf("first request: got status %d, want %d", rr1.Code, http.StatusOK)
	}

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, requestWithKey(key))
	if rr2.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got status %d, want %d", rr2.Code, http.StatusTooManyRequests)
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Error("rejected request should carry a Retry-After header")
	}
}

func TestRateLimitMiddleware_ZeroLimitIsUnlimited(t *testing.T) {
	middleware := RateLimitMiddleware()

	calls := 0
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	key := &store.APIKey{ID: uuid.New(), Name: "internal", RateLimit: 0}

	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestWithKey(key))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i, rr.Code, http.StatusOK)
		}
	}
	if calls != 50 {
		t.Errorf("expected 50 handler calls, got %d", calls)
	}
}

func TestRateLimitMiddleware_SeparateKeysSeparateBudgets(t *testing.T) {
	middleware := RateLimitMiddleware()

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	keyA := &store.APIKey{ID: uuid.New(), Name: "a", RateLimit: 1}
	keyB := &store.APIKey{ID: uuid.New(), Name: "b", RateLimit: 1}

	rrA := httptest.NewRecorder()
	handler.ServeHTTP(rrA, requestWithKey(keyA))
	if rrA.Code != http.StatusOK {
		t.Errorf("key a: got status %d, want %d", rrA.Code, http.StatusOK)
	}

	// A fresh key has its own budget even after another key spent its burst.
	rrB := httptest.NewRecorder()
	handler.ServeHTTP(rrB, requestWithKey(keyB))
	if rrB.Code != http.StatusOK {
		t.Errorf("key b: got status %d, want %d", rrB.Code, http.StatusOK)
	}
}
