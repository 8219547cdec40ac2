// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"postforge/internal/auth"
	"postforge/internal/store"
)

// apiKeyKey is the context key for the authenticated API key.
type apiKeyKey struct{}

// AuthMiddleware validates the Bearer token against the stored key
// hashes and puts the resolved key on the request context.
func AuthMiddleware(keys store.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			key, err := keys.GetAPIKeyByHash(r.Context(), auth.HashKey(parts[1]))
			if err != nil {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromContext extracts the authenticated key from the context.
func APIKeyFromContext(ctx context.Context) (*store.APIKey, bool) {
	key, ok := ctx.Value(apiKeyKey{}).(*store.APIKey)
	return key, ok
}
