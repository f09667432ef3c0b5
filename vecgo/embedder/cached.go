package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Cache stores vectors keyed by embedder name and content hash.
type Cache interface {
	Lookup(ctx context.Context, model string, keys []string) (map[string][]float32, error)
	Store(ctx context.Context, model string, entries map[string][]float32) error
}

// Cached wraps an Embedder so that texts already embedded by the same model
// are served from a Cache. Misses are embedded with a single call to the
// wrapped embedder.
type Cached struct {
	inner Embedder
	cache Cache

	// OnCacheError, if set, receives cache failures. Cache failures never
	// fail an Embed call; the affected texts are embedded instead.
	OnCacheError func(error)
}

// NewCached wraps inner with cache.
func NewCached(inner Embedder, cache Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Embed returns cached vectors where present and embeds the rest.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := c.inner.Name()
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = ContentKey(text)
	}

	hits, err := c.cache.Lookup(ctx, model, keys)
	if err != nil {
		c.reportError(err)
		hits = nil
	}

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, key := range keys {
		if v, ok := hits[key]; ok {
			vectors[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("%s returned %d vectors for %d texts", model, len(embedded), len(missTexts))
	}

	fresh := make(map[string][]float32, len(embedded))
	for j, i := range missIdx {
		vectors[i] = embedded[j]
		fresh[keys[i]] = embedded[j]
	}
	if err := c.cache.Store(ctx, model, fresh); err != nil {
		c.reportError(err)
	}

	return vectors, nil
}

// Dimensions delegates to the wrapped embedder.
func (c *Cached) Dimensions() int { return c.inner.Dimensions() }

// Name delegates to the wrapped embedder.
func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) reportError(err error) {
	if c.OnCacheError != nil {
		c.OnCacheError(err)
	}
}

// ContentKey returns the cache key for text.
func ContentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
