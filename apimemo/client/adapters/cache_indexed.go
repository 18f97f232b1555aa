package adapters

import (
	"sync"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/armon/go-radix"
)

// IndexedCache is a string-keyed LRUCache that also keeps its keys in a radix
// tree, so every entry under a key prefix can be dropped at once.
//
// Lock order is mu then the LRU's own lock; the eviction hook only runs inside
// Put, where mu is already held.
type IndexedCache[V any] struct {
	mu    sync.Mutex
	lru   *LRUCache[string, V]
	index *radix.Tree
}

// NewIndexedCache creates an IndexedCache holding at most capacity entries.
func NewIndexedCache[V any](capacity int) (*IndexedCache[V], error) {
	c := &IndexedCache[V]{index: radix.New()}

	lru, err := NewLRUCache(capacity, WithEvictionHook(func(key string, _ V) {
		c.index.Delete(key)
	}))
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

// Get returns the value for key and promotes it.
func (c *IndexedCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Put stores value under key, evicting the least recently used entry when full.
func (c *IndexedCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Put(key, value)
	c.index.Insert(key, struct{}{})
}

// Remove deletes key and reports whether it was present.
func (c *IndexedCache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Delete(key)
	return c.lru.Remove(key)
}

// RemovePrefix deletes every key starting with prefix and returns how many
// entries were dropped.
func (c *IndexedCache[V]) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []string
	c.index.WalkPrefix(prefix, func(key string, _ interface{}) bool {
		matched = append(matched, key)
		return false
	})

	removed := 0
	for _, key := range matched {
		c.index.Delete(key)
		if c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (c *IndexedCache[V]) Len() int {
	return c.lru.Len()
}

// Cap returns the fixed capacity.
func (c *IndexedCache[V]) Cap() int {
	return c.lru.Cap()
}

// Keys returns the cached keys from most to least recently used.
func (c *IndexedCache[V]) Keys() []string {
	return c.lru.Keys()
}

// indexed reports the number of keys tracked by the radix tree.
func (c *IndexedCache[V]) indexed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Len()
}

var (
	_ ports.Cache[string, *ports.Response] = (*IndexedCache[*ports.Response])(nil)
	_ ports.PrefixInvalidator              = (*IndexedCache[*ports.Response])(nil)
)
