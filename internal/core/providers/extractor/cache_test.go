package extractor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// countingProvider records how many embedding calls reach it.
type countingProvider struct {
	calls atomic.Int64
}

func (p *countingProvider) EmbedImage(ctx context.Context, data []byte) (Vector, error) {
	p.calls.Add(1)
	return Vector{1, 0}, nil
}

func (p *countingProvider) EmbedText(ctx context.Context, text string) (Vector, error) {
	p.calls.Add(1)
	return Vector{0, 1}, nil
}

func (p *countingProvider) EmbedTextAsVisualConcept(ctx context.Context, text string) (Vector, error) {
	p.calls.Add(1)
	return Vector{0.5, 0.5}, nil
}

func (p *countingProvider) PerceptualHash(data []byte) (string, error) { return "0000000000000000", nil }
func (p *countingProvider) Initialize() error                          { return nil }
func (p *countingProvider) Cleanup() error                             { return nil }

func TestCachedProviderMemoryStore(t *testing.T) {
	inner := &countingProvider{}
	provider := NewCached(inner, NewMemoryCache())
	ctx := context.Background()

	first, err := provider.EmbedText(ctx, "Starbeans")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	second, err := provider.EmbedText(ctx, "Starbeans")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}

	if inner.calls.Load() != 1 {
		t.Fatalf("expected one inner call, got %d", inner.calls.Load())
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Fatalf("cache returned different vector")
	}

	// Different input misses.
	if _, err := provider.EmbedText(ctx, "Nikey"); err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Fatalf("expected cache miss for new input, calls=%d", inner.calls.Load())
	}
}

func TestCachedProviderSeparatesSpaces(t *testing.T) {
	inner := &countingProvider{}
	provider := NewCached(inner, NewMemoryCache())
	ctx := context.Background()

	if _, err := provider.EmbedText(ctx, "Starbeans"); err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	vis, err := provider.EmbedTextAsVisualConcept(ctx, "Starbeans")
	if err != nil {
		t.Fatalf("EmbedTextAsVisualConcept: %v", err)
	}

	// Same text, different namespace: both must hit the inner provider and
	// the visual result must come from the visual path.
	if inner.calls.Load() != 2 {
		t.Fatalf("text and visual caches must be disjoint, calls=%d", inner.calls.Load())
	}
	if vis[0] != 0.5 {
		t.Fatalf("visual concept vector polluted by text cache: %v", vis)
	}
}

func TestCachedProviderRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)

	store := NewRedisCache(RedisCacheConfig{Addr: srv.Addr()})
	t.Cleanup(func() { _ = store.Close() })

	inner := &countingProvider{}
	provider := NewCached(inner, store)
	ctx := context.Background()

	first, err := provider.EmbedImage(ctx, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("EmbedImage: %v", err)
	}
	second, err := provider.EmbedImage(ctx, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("EmbedImage: %v", err)
	}

	if inner.calls.Load() != 1 {
		t.Fatalf("expected redis cache hit, calls=%d", inner.calls.Load())
	}
	if first[0] != second[0] || first[1] != second[1] {
		t.Fatalf("redis round trip altered the vector: %v vs %v", first, second)
	}
}

func TestCachedProviderRedisDown(t *testing.T) {
	srv := miniredis.RunT(t)
	store := NewRedisCache(RedisCacheConfig{Addr: srv.Addr()})
	srv.Close()

	inner := &countingProvider{}
	provider := NewCached(inner, store)

	// An unreachable cache must not fail the extraction.
	if _, err := provider.EmbedText(context.Background(), "Starbeans"); err != nil {
		t.Fatalf("cache outage should fall through to provider, got %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Fatalf("expected inner call on cache outage")
	}
}
