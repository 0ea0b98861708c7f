package repository

import (
	"context"
	"sync"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"

	"github.com/google/uuid"
)

// memoryCollection keeps records in insertion order. Records are copied in
// and out so callers never share the stored value.
type memoryCollection[T any] struct {
	mu    sync.RWMutex
	order []string
	items map[string]T
	clone func(T) T
}

func newMemoryCollection[T any](clone func(T) T) *memoryCollection[T] {
	return &memoryCollection[T]{items: make(map[string]T), clone: clone}
}

func (c *memoryCollection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.items[id]))
	}
	return out
}

func (c *memoryCollection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(item), true
}

func (c *memoryCollection[T]) put(id string, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = c.clone(item)
}

func (c *memoryCollection[T]) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[id]; !exists {
		return false
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *memoryCollection[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = nil
	c.items = make(map[string]T)
}

// lazy takes the snapshot when the sequence is ranged over, so every
// range sees the collection as it is at that moment.
func lazy[T any](ctx context.Context, c *memoryCollection[T]) stream.Seq[T] {
	return func(yield func(T, error) bool) {
		stream.Until(ctx, stream.FromSlice(c.snapshot()))(yield)
	}
}

type memoryProductRepository struct {
	products *memoryCollection[*domain.Product]
}

// NewMemoryProductRepository creates a process-local ProductRepository.
func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{products: newMemoryCollection((*domain.Product).Clone)}
}

func (r *memoryProductRepository) FindAll(ctx context.Context) stream.Seq[*domain.Product] {
	return lazy(ctx, r.products)
}

func (r *memoryProductRepository) FindByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product] {
	return stream.Filter(lazy(ctx, r.products), func(p *domain.Product) bool {
		return p.CategoryID() == categoryID
	})
}

func (r *memoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	product, ok := r.products.get(id)
	if !ok {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (r *memoryProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := product.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	r.products.put(saved.ID, saved)
	return saved, nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if !r.products.remove(id) {
		return ErrProductNotFound
	}
	return nil
}

func (r *memoryProductRepository) DeleteAll(ctx context.Context) error {
	r.products.clear()
	return nil
}

type memoryCategoryRepository struct {
	categories *memoryCollection[*domain.Category]
}

// NewMemoryCategoryRepository creates a process-local CategoryRepository.
func NewMemoryCategoryRepository() CategoryRepository {
	return &memoryCategoryRepository{categories: newMemoryCollection(func(c *domain.Category) *domain.Category {
		cp := *c
		return &cp
	})}
}

func (r *memoryCategoryRepository) FindAll(ctx context.Context) stream.Seq[*domain.Category] {
	return lazy(ctx, r.categories)
}

func (r *memoryCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories.get(id)
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (r *memoryCategoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	saved := *category
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	r.categories.put(saved.ID, &saved)
	return &saved, nil
}

func (r *memoryCategoryRepository) DeleteAll(ctx context.Context) error {
	r.categories.clear()
	return nil
}
