// Package pipeline composes the product listings shown by the list views.
// Every listing starts from the same uppercased product read and differs
// only in the delivery policy attached to it.
package pipeline

import (
	"context"
	"time"

	"catalog-webflux/internal/config"
	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"

	"go.uber.org/zap"
)

// View names rendered by the list policies
const (
	ViewList        = "listar"
	ViewListChunked = "listar-chunked"
)

// Policy describes how a listing is delivered to the renderer.
type Policy struct {
	Name string
	View string
	// Delay is waited before each element. Zero means no pacing.
	Delay time.Duration
	// Repeat is the total number of passes over the source; values below 1
	// mean a single pass.
	Repeat int
	// ChunkSize > 0 streams the listing in batches of that size, each one
	// pulled only after the renderer has written the previous one. Zero
	// materializes the whole listing before rendering.
	ChunkSize int
}

// Streamed reports whether the renderer receives the listing batch by batch
func (p Policy) Streamed() bool {
	return p.ChunkSize > 0
}

// Policies holds the four listing variants served by the list routes
type Policies struct {
	Plain   Policy
	Paced   Policy
	Full    Policy
	Chunked Policy
}

// NewPolicies builds the listing variants from configuration
func NewPolicies(cfg config.ListingConfig) Policies {
	chunk := cfg.ChunkSize
	if chunk < 1 {
		chunk = 2
	}

	return Policies{
		Plain: Policy{Name: "plain", View: ViewList, Repeat: 1},
		Paced: Policy{Name: "paced", View: ViewList, Delay: cfg.PaceInterval, Repeat: 1, ChunkSize: 1},
		Full:  Policy{Name: "repeated", View: ViewList, Repeat: cfg.Repeat},
		Chunked: Policy{
			Name:      "chunked",
			View:      ViewListChunked,
			Repeat:    cfg.Repeat,
			ChunkSize: chunk,
		},
	}
}

// ProductSource is the catalog read the listings are built on
type ProductSource interface {
	ListProductsUppercased(ctx context.Context) stream.Seq[*domain.Product]
	ListProductsByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product]
}

// Pipeline attaches delivery policies to the catalog's product read
type Pipeline struct {
	source ProductSource
	logger *zap.Logger
}

// New creates a Pipeline over source
func New(source ProductSource, logger *zap.Logger) *Pipeline {
	return &Pipeline{source: source, logger: logger}
}

// Listing is a lazily produced product listing. Nothing is read from the
// store until Batches or All is consumed.
type Listing struct {
	Policy   Policy
	products stream.Seq[*domain.Product]
}

// Listing composes the listing for policy. A non-empty categoryID restricts
// it to that category. Production stops as soon as ctx is done.
func (p *Pipeline) Listing(ctx context.Context, policy Policy, categoryID string) *Listing {
	var base stream.Seq[*domain.Product]
	if categoryID != "" {
		base = p.source.ListProductsByCategory(ctx, categoryID)
	} else {
		base = p.source.ListProductsUppercased(ctx)
	}

	products := stream.Peek(base, func(product *domain.Product) {
		p.logger.Debug("Product emitted",
			zap.String("policy", policy.Name),
			zap.String("product_id", product.ID),
			zap.String("name", product.Name),
		)
	})

	if policy.Repeat > 1 {
		products = stream.Repeat(products, policy.Repeat)
	}
	if policy.Delay > 0 {
		products = stream.Delay(ctx, products, policy.Delay)
	}

	return &Listing{
		Policy:   policy,
		products: stream.Until(ctx, products),
	}
}

// Batches yields the listing in policy-sized batches. For eager policies
// the whole listing arrives as one batch.
func (l *Listing) Batches() stream.Seq[[]*domain.Product] {
	if l.Policy.Streamed() {
		return stream.Chunk(l.products, l.Policy.ChunkSize)
	}
	return func(yield func([]*domain.Product, error) bool) {
		all, err := stream.Collect(l.products)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(all, nil)
	}
}

// All materializes the listing
func (l *Listing) All() ([]*domain.Product, error) {
	return stream.Collect(l.products)
}
