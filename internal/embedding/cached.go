package embedding

import "context"

// CachedEmbedder memoizes another embedder. Repeated benchmark queries then
// measure index latency only.
type CachedEmbedder struct {
	inner Embedder
	cache *vectorCache
}

// NewCachedEmbedder wraps inner with an LRU cache of the given capacity.
// A non-positive capacity returns inner unchanged.
func NewCachedEmbedder(inner Embedder, capacity int) Embedder {
	if capacity <= 0 {
		return inner
	}
	return &CachedEmbedder{inner: inner, cache: newVectorCache(capacity)}
}

// Embed returns the cached embedding of text, computing it on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.get(text); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.put(text, v)
	return v, nil
}

// EmbedBatch embeds each text through the cache.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Stats reports cache hits and misses.
func (c *CachedEmbedder) Stats() CacheStats {
	return c.cache.stats()
}

// Dimensions returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}
