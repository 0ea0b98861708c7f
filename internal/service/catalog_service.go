package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/repository"
	"catalog-webflux/internal/stream"
)

var (
	ErrMissingID        = errors.New("product has no id")
	ErrCategoryRequired = errors.New("product has no resolved category")
)

// CatalogService defines the interface for catalog business logic.
// Lookups report absence through the found flag; err is reserved for
// store faults.
type CatalogService interface {
	ListCategories(ctx context.Context) stream.Seq[*domain.Category]
	FindCategory(ctx context.Context, id string) (*domain.Category, bool, error)
	ListProducts(ctx context.Context) stream.Seq[*domain.Product]
	ListProductsUppercased(ctx context.Context) stream.Seq[*domain.Product]
	ListProductsByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product]
	FindProduct(ctx context.Context, id string) (*domain.Product, bool, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	SaveCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, product *domain.Product) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	now          func() time.Time
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		now:          time.Now,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) stream.Seq[*domain.Category] {
	return s.categoryRepo.FindAll(ctx)
}

func (s *catalogService) FindCategory(ctx context.Context, id string) (*domain.Category, bool, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find category: %w", err)
	}
	return category, true, nil
}

func (s *catalogService) ListProducts(ctx context.Context) stream.Seq[*domain.Product] {
	return s.productRepo.FindAll(ctx)
}

// ListProductsUppercased emits copies whose name is upper case. The records
// read from the store are never handed out, so nothing upstream changes.
func (s *catalogService) ListProductsUppercased(ctx context.Context) stream.Seq[*domain.Product] {
	return stream.Map(s.productRepo.FindAll(ctx), uppercased)
}

func (s *catalogService) ListProductsByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product] {
	return stream.Map(s.productRepo.FindByCategory(ctx, categoryID), uppercased)
}

func (s *catalogService) FindProduct(ctx context.Context, id string) (*domain.Product, bool, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find product: %w", err)
	}
	return product, true, nil
}

// Save inserts the product when it has no id and replaces it otherwise.
// A zero CreatedAt is set to the current time; a set one is kept.
func (s *catalogService) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.Category == nil || product.Category.ID == "" {
		return nil, ErrCategoryRequired
	}

	toSave := product.Clone()
	if toSave.CreatedAt.IsZero() {
		toSave.CreatedAt = s.now()
	}

	saved, err := s.productRepo.Save(ctx, toSave)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return saved, nil
}

func (s *catalogService) SaveCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	saved, err := s.categoryRepo.Save(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	return saved, nil
}

// Delete removes the product by id. Callers check existence first.
func (s *catalogService) Delete(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return ErrMissingID
	}
	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func uppercased(p *domain.Product) *domain.Product {
	cp := p.Clone()
	cp.Name = strings.ToUpper(p.Name)
	return cp
}
