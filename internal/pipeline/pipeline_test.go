package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"catalog-webflux/internal/config"
	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// mockSource serves a fixed product list and counts how many products have
// been pulled out of it.
type mockSource struct {
	products []*domain.Product
	pulled   int
	reads    int
}

func newMockSource(n int) *mockSource {
	src := &mockSource{}
	for i := 0; i < n; i++ {
		src.products = append(src.products, &domain.Product{
			ID:       fmt.Sprintf("p%d", i),
			Name:     fmt.Sprintf("PRODUCT %d", i),
			Category: &domain.Category{ID: fmt.Sprintf("c%d", i%2)},
		})
	}
	return src
}

func (m *mockSource) seq(keep func(*domain.Product) bool) stream.Seq[*domain.Product] {
	return func(yield func(*domain.Product, error) bool) {
		m.reads++
		for _, p := range m.products {
			if keep != nil && !keep(p) {
				continue
			}
			m.pulled++
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (m *mockSource) ListProductsUppercased(ctx context.Context) stream.Seq[*domain.Product] {
	return m.seq(nil)
}

func (m *mockSource) ListProductsByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product] {
	return m.seq(func(p *domain.Product) bool { return p.CategoryID() == categoryID })
}

func testPolicies() Policies {
	return NewPolicies(config.ListingConfig{PaceInterval: 5 * time.Millisecond, Repeat: 3, ChunkSize: 2})
}

func TestNewPolicies(t *testing.T) {
	p := NewPolicies(config.ListingConfig{PaceInterval: time.Second, Repeat: 5000, ChunkSize: 2})

	if p.Plain.Streamed() || p.Plain.Delay != 0 || p.Plain.Repeat != 1 {
		t.Errorf("unexpected plain policy %+v", p.Plain)
	}
	if !p.Paced.Streamed() || p.Paced.Delay != time.Second || p.Paced.ChunkSize != 1 {
		t.Errorf("unexpected paced policy %+v", p.Paced)
	}
	if p.Full.Streamed() || p.Full.Repeat != 5000 {
		t.Errorf("unexpected full policy %+v", p.Full)
	}
	if p.Chunked.ChunkSize != 2 || p.Chunked.Repeat != 5000 || p.Chunked.View != ViewListChunked {
		t.Errorf("unexpected chunked policy %+v", p.Chunked)
	}
}

func TestPlainListingIsOneBatch(t *testing.T) {
	src := newMockSource(10)
	listing := New(src, zap.NewNop()).Listing(context.Background(), testPolicies().Plain, "")

	batches, err := stream.Collect(listing.Batches())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 1 || len(batches[0]) != 10 {
		t.Fatalf("expected one batch of 10, got %d batches", len(batches))
	}
}

func TestListingIsLazy(t *testing.T) {
	src := newMockSource(4)
	_ = New(src, zap.NewNop()).Listing(context.Background(), testPolicies().Chunked, "")

	if src.reads != 0 {
		t.Errorf("listing read the source %d times before being consumed", src.reads)
	}
}

func TestFullListingRepeatsSource(t *testing.T) {
	src := newMockSource(4)
	all, err := New(src, zap.NewNop()).Listing(context.Background(), testPolicies().Full, "").All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(all) != 12 {
		t.Fatalf("expected 12 products, got %d", len(all))
	}
	if src.reads != 3 {
		t.Errorf("expected the source to be read 3 times, got %d", src.reads)
	}
	for i, p := range all {
		if want := fmt.Sprintf("p%d", i%4); p.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, p.ID)
		}
	}
}

func TestProperty_ChunkedListingBoundsUnconsumedElements(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("no more than 2 elements are pulled ahead of the renderer and order is kept", prop.ForAll(
		func(n int) bool {
			src := newMockSource(n)
			listing := New(src, zap.NewNop()).Listing(context.Background(), testPolicies().Chunked, "")

			consumed := 0
			for batch, err := range listing.Batches() {
				if err != nil {
					return false
				}
				if len(batch) > 2 || src.pulled-consumed > 2 {
					t.Logf("FAIL: batch %d, pulled %d, consumed %d", len(batch), src.pulled, consumed)
					return false
				}
				for _, p := range batch {
					if want := fmt.Sprintf("p%d", consumed%n); p.ID != want {
						t.Logf("FAIL: expected %s, got %s", want, p.ID)
						return false
					}
					consumed++
				}
			}
			return consumed == 3*n
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPacedListingDeliversOneAtATime(t *testing.T) {
	src := newMockSource(3)
	policy := testPolicies().Paced
	listing := New(src, zap.NewNop()).Listing(context.Background(), policy, "")

	start := time.Now()
	count := 0
	for batch, err := range listing.Batches() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch) != 1 {
			t.Fatalf("expected single-element batches, got %d", len(batch))
		}
		count++
		if elapsed := time.Since(start); elapsed < time.Duration(count)*policy.Delay {
			t.Errorf("element %d delivered after %v, before its pacing delay", count, elapsed)
		}
	}
	if count != 3 {
		t.Errorf("expected 3 elements, got %d", count)
	}
}

func TestListingStopsWhenContextCancelled(t *testing.T) {
	src := newMockSource(10)
	ctx, cancel := context.WithCancel(context.Background())
	listing := New(src, zap.NewNop()).Listing(ctx, testPolicies().Chunked, "")

	var gotErr error
	batches := 0
	for _, err := range listing.Batches() {
		if err != nil {
			gotErr = err
			break
		}
		batches++
		cancel()
	}

	if batches != 1 {
		t.Errorf("expected 1 batch before cancellation, got %d", batches)
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", gotErr)
	}
	if src.pulled > 3 {
		t.Errorf("producer kept running after cancellation: %d pulled", src.pulled)
	}
}

func TestListingFiltersByCategory(t *testing.T) {
	src := newMockSource(6)
	all, err := New(src, zap.NewNop()).Listing(context.Background(), testPolicies().Plain, "c1").All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}
	for _, p := range all {
		if p.CategoryID() != "c1" {
			t.Errorf("unexpected category %s", p.CategoryID())
		}
	}
}
