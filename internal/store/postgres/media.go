package postgres

import (
	"context"
	"fmt"

	"postforge/internal/store"

	"github.com/lib/pq"
)

// GetMediaByIDs returns the media-library items matching the given IDs.
// Unknown IDs are silently omitted from the result.
func (s *Store) GetMediaByIDs(ctx context.Context, ids []string) ([]store.MediaItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, url, alt_text, created_at
		FROM media_items
		WHERE id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("media query failed: %w", err)
	}
	defer rows.Close()

	var items []store.MediaItem
	for rows.Next() {
		var item store.MediaItem
		if err := rows.Scan(&item.ID, &item.URL, &item.AltText, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("media scan failed: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("media rows error: %w", err)
	}

	return items, nil
}
