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

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a ProductRepository that keeps each product
// as a JSONB document in the productos table.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// FindAll streams every product in insertion order. The query runs when
// the sequence is ranged over, and again on every new range.
func (r *productRepository) FindAll(ctx context.Context) stream.Seq[*domain.Product] {
	query := `SELECT document FROM productos ORDER BY position ASC`
	return queryProducts(ctx, r.db, query)
}

// FindByCategory streams the products whose category snapshot has the given id
func (r *productRepository) FindByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product] {
	query := `
		SELECT document
		FROM productos
		WHERE document->'category'->>'id' = $1
		ORDER BY position ASC
	`
	return queryProducts(ctx, r.db, query, categoryID)
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT document FROM productos WHERE id = $1`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	product := &domain.Product{}
	if err := json.Unmarshal(raw, product); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}

	return product, nil
}

// Save inserts or replaces the whole product document
func (r *productRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := product.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}

	doc, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product: %w", err)
	}

	query := `
		INSERT INTO productos (id, document)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document
	`

	if _, err := r.db.ExecContext(ctx, query, saved.ID, string(doc)); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	return saved, nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	query := `DELETE FROM productos WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DeleteAll empties the productos table
func (r *productRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM productos`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	return nil
}

func queryProducts(ctx context.Context, db *sql.DB, query string, args ...any) stream.Seq[*domain.Product] {
	return func(yield func(*domain.Product, error) bool) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list products: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				yield(nil, fmt.Errorf("failed to scan product: %w", err))
				return
			}

			product := &domain.Product{}
			if err := json.Unmarshal(raw, product); err != nil {
				yield(nil, fmt.Errorf("failed to decode product: %w", err))
				return
			}

			if !yield(product, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating products: %w", err))
		}
	}
}
