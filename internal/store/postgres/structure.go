package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postforge/internal/store"

	"github.com/google/uuid"
)

const structureColumns = `id, name, sections, weight, is_active, is_default, created_at`

// GetStructureByID returns an article structure by its ID.
func (s *Store) GetStructureByID(ctx context.Context, id uuid.UUID) (*store.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM structures WHERE id = $1`

	var st store.Structure
	var sections string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&st.ID, &st.Name, &sections, &st.Weight, &st.IsActive, &st.IsDefault, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get structure %s: %w", id, err)
	}
	st.Sections = []byte(sections)

	return &st, nil
}

// GetDefaultStructure returns the structure marked as default, if any.
func (s *Store) GetDefaultStructure(ctx context.Context) (*store.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM structures WHERE is_default AND is_active LIMIT 1`

	var st store.Structure
	var sections string
	err := s.db.QueryRowContext(ctx, query).Scan(
		&st.ID, &st.Name, &sections, &st.Weight, &st.IsActive, &st.IsDefault, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get default structure: %w", err)
	}
	st.Sections = []byte(sections)

	return &st, nil
}

// ListActiveStructures returns all active structures in a stable order.
// The rotation selector depends on the ordering being deterministic.
func (s *Store) ListActiveStructures(ctx context.Context) ([]store.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM structures WHERE is_active ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("structures query failed: %w", err)
	}
	defer rows.Close()

	var structures []store.Structure
	for rows.Next() {
		var st store.Structure
		var sections string
		if err := rows.Scan(&st.ID, &st.Name, &sections, &st.Weight, &st.IsActive, &st.IsDefault, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("structure scan failed: %w", err)
		}
		st.Sections = []byte(sections)
		structures = append(structures, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("structure rows error: %w", err)
	}

	return structures, nil
}
