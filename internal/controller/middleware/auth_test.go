package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postforge/internal/auth"
	"postforge/internal/store"

	"github.com/google/uuid"
)

// mockAPIKeyStore implements store.APIKeyStore for testing
type mockAPIKeyStore struct {
	key          *store.APIKey
	err          error
	capturedHash string
}

func (m *mockAPIKeyStore) CreateAPIKey(ctx context.Context, key *store.APIKey) error {
	return nil
}

func (m *mockAPIKeyStore) GetAPIKeyByHash(ctx context.Context, hash string) (*store.APIKey, error) {
	m.capturedHash = hash
	if m.err != nil {
		return nil, m.err
	}
	return m.key, nil
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	middleware := AuthMiddleware(&mockAPIKeyStore{})

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidAuthHeaderFormat(t *testing.T) {
	middleware := AuthMiddleware(&mockAPIKeyStore{})

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "pf_deadbeef"},
		{"wrong prefix", "Basic pf_deadbeef"},
		{"too many parts", "Bearer key1 key2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_UnknownKey(t *testing.T) {
	middleware := AuthMiddleware(&mockAPIKeyStore{err: store.ErrNotFound})

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer pf_unknown")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidKey(t *testing.T) {
	apiKey := &store.APIKey{
		ID:        uuid.New(),
		Name:      "ops",
		RateLimit: 10,
		CreatedAt: time.Now().UTC(),
	}
	mock := &mockAPIKeyStore{key: apiKey}
	middleware := AuthMiddleware(mock)

	handlerCalled := false
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		got, ok := APIKeyFromContext(r.Context())
		if !ok {
			t.Error("expected API key on the request context")
			return
		}
		if got.ID != apiKey.ID {
			t.Errorf("got key %s, want %s", got.ID, apiKey.ID)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer pf_secret")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
	if mock.capturedHash != auth.HashKey("pf_secret") {
		t.Error("lookup must use the key hash, not the plaintext key")
	}
}

func TestAPIKeyFromContext_Empty(t *testing.T) {
	if _, ok := APIKeyFromContext(context.Background()); ok {
		t.Error("empty context should not yield a key")
	}
}
