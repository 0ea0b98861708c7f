package repository

import (
	"context"
	"errors"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"
)

// Collection names shared by every store implementation.
const (
	ProductsCollection   = "productos"
	CategoriesCollection = "categorias"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrMissingID        = errors.New("record has no id")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	FindAll(ctx context.Context) stream.Seq[*domain.Category]
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	Save(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteAll(ctx context.Context) error
}

// ProductRepository defines the interface for product data access.
// Save inserts when the product has no id and replaces the stored record
// otherwise; the last writer for an id wins.
type ProductRepository interface {
	FindAll(ctx context.Context) stream.Seq[*domain.Product]
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product]
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
