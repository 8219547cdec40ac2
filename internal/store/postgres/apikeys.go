package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postforge/internal/store"
)

// CreateAPIKey inserts a new API key. Only the hash is stored.
func (s *Store) CreateAPIKey(ctx context.Context, key *store.APIKey) error {
	query := `
		INSERT INTO api_keys (id, name, key_hash, rate_limit, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		key.ID, key.Name, key.KeyHash, key.RateLimit, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	return nil
}

// GetAPIKeyByHash returns the API key matching the given hash.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (*store.APIKey, error) {
	query := `SELECT id, name, key_hash, rate_limit, created_at FROM api_keys WHERE key_hash = $1`

	var key store.APIKey
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&key.ID, &key.Name, &key.KeyHash, &key.RateLimit, &key.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	return &key, nil
}
