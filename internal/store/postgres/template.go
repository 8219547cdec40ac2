package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postforge/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const templateColumns = `id, name, content_prompt, title_prompt, image_prompt, post_status, post_category, post_author, generate_image, image_source, stock_keywords, media_ids, created_at`

// CreateTemplate inserts a new generation template.
func (s *Store) CreateTemplate(ctx context.Context, tx store.DBTransaction, t *store.Template) error {
	executor := s.getExecutor(tx)

	query := `
		INSERT INTO templates (id, name, content_prompt, title_prompt, image_prompt, post_status, post_category, post_author, generate_image, image_source, stock_keywords, media_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := executor.ExecContext(ctx, query,
		t.ID, t.Name, t.ContentPrompt, t.TitlePrompt, t.ImagePrompt,
		t.PostStatus, t.PostCategory, t.PostAuthor, t.GenerateImage,
		t.ImageSource, t.StockKeywords, pq.Array(t.MediaIDs), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template %s: %w", t.ID, err)
	}

	return nil
}

// GetTemplateByID returns a template by its ID.
func (s *Store) GetTemplateByID(ctx context.Context, id uuid.UUID) (*store.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`

	var t store.Template
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.ContentPrompt, &t.TitlePrompt, &t.ImagePrompt,
		&t.PostStatus, &t.PostCategory, &t.PostAuthor, &t.GenerateImage,
		&t.ImageSource, &t.StockKeywords, pq.Array(&t.MediaIDs), &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}

	return &t, nil
}

// ListTemplates returns all templates, newest first.
func (s *Store) ListTemplates(ctx context.Context) ([]store.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("templates query failed: %w", err)
	}
	defer rows.Close()

	var templates []store.Template
	for rows.Next() {
		var t store.Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.ContentPrompt, &t.TitlePrompt, &t.ImagePrompt,
			&t.PostStatus, &t.PostCategory, &t.PostAuthor, &t.GenerateImage,
			&t.ImageSource, &t.StockKeywords, pq.Array(&t.MediaIDs), &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("template scan failed: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("template rows error: %w", err)
	}

	return templates, nil
}

// UpdateTemplate replaces the mutable fields of a template.
func (s *Store) UpdateTemplate(ctx context.Context, t *store.Template) error {
	query := `
		UPDATE templates
		SET name = $2, content_prompt = $3, title_prompt = $4, image_prompt = $5,
		    post_status = $6, post_category = $7, post_author = $8,
		    generate_image = $9, image_source = $10, stock_keywords = $11, media_ids = $12
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		t.ID, t.Name, t.ContentPrompt, t.TitlePrompt, t.ImagePrompt,
		t.PostStatus, t.PostCategory, t.PostAuthor, t.GenerateImage,
		t.ImageSource, t.StockKeywords, pq.Array(t.MediaIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to update template %s: %w", t.ID, err)
	}

	return checkAffected(result)
}

// DeleteTemplate removes a template and, via cascade, its schedules.
func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}

	return checkAffected(result)
}
