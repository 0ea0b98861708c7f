package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"

	"github.com/google/uuid"
)

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// FindAll streams every category in insertion order
func (r *categoryRepository) FindAll(ctx context.Context) stream.Seq[*domain.Category] {
	return func(yield func(*domain.Category, error) bool) {
		rows, err := r.db.QueryContext(ctx, `SELECT document FROM categorias ORDER BY position ASC`)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list categories: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				yield(nil, fmt.Errorf("failed to scan category: %w", err))
				return
			}

			category := &domain.Category{}
			if err := json.Unmarshal(raw, category); err != nil {
				yield(nil, fmt.Errorf("failed to decode category: %w", err))
				return
			}

			if !yield(category, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating categories: %w", err))
		}
	}
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM categorias WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	category := &domain.Category{}
	if err := json.Unmarshal(raw, category); err != nil {
		return nil, fmt.Errorf("failed to decode category: %w", err)
	}

	return category, nil
}

// Save inserts or replaces the category document
func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	saved := *category
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}

	doc, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode category: %w", err)
	}

	query := `
		INSERT INTO categorias (id, document)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document
	`

	if _, err := r.db.ExecContext(ctx, query, saved.ID, string(doc)); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}

	return &saved, nil
}

// DeleteAll empties the categorias table
func (r *categoryRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categorias`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return nil
}
