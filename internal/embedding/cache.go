package embedding

import (
	"container/list"
	"sync"
)

// CacheStats counts lookups since the cache was created.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// vectorCache is a bounded LRU of embeddings keyed by their source text.
type vectorCache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	hits    uint64
	misses  uint64
}

type cached struct {
	text string
	vec  []float32
}

func newVectorCache(limit int) *vectorCache {
	return &vectorCache{limit: limit, entries: make(map[string]*list.Element), order: list.New()}
}

func (c *vectorCache) get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[text]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*cached).vec, true
}

func (c *vectorCache) put(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[text]; ok {
		el.Value.(*cached).vec = vec
		c.order.MoveToFront(el)
		return
	}
	c.entries[text] = c.order.PushFront(&cached{text: text, vec: vec})
	for c.order.Len() > c.limit {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*cached).text)
	}
}

func (c *vectorCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.order.Len()}
}
