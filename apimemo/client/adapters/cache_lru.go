package adapters

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
)

// ErrInvalidCapacity is returned when a cache is constructed with capacity < 1.
var ErrInvalidCapacity = errors.New("cache capacity must be at least 1")

// LRUCache is a fixed-capacity cache that evicts the least recently used key.
// Both Get hits and Put mark a key as most recently used.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most recent, back = least recent
	onEvict  func(key K, value V)
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRUOption configures an LRUCache.
type LRUOption[K comparable, V any] func(*LRUCache[K, V])

// WithEvictionHook registers fn to run whenever capacity pressure evicts an
// entry. fn runs while the cache lock is held and must not call the cache.
func WithEvictionHook[K comparable, V any](fn func(key K, value V)) LRUOption[K, V] {
	return func(c *LRUCache[K, V]) {
		c.onEvict = fn
	}
}

// NewLRUCache creates an LRU cache holding at most capacity entries.
func NewLRUCache[K comparable, V any](capacity int, opts ...LRUOption[K, V]) (*LRUCache[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	c := &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the value stored under key and promotes it to most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

// Put stores value under key. Overwriting an existing key never evicts; a new
// key inserted at capacity evicts the least recently used entry first.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// Remove deletes key and reports whether it was present. Removal does not run
// the eviction hook.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

// Len returns the number of entries.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the fixed capacity.
func (c *LRUCache[K, V]) Cap() int {
	return c.capacity
}

// Keys returns the current keys from most to least recently used.
func (c *LRUCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// Clear drops every entry without running the eviction hook.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// evictOldest must be called with c.mu held.
func (c *LRUCache[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}

	entry := c.order.Remove(oldest).(*lruEntry[K, V])
	delete(c.items, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}

// Ensure LRUCache implements the Cache interface.
var _ ports.Cache[string, *ports.Response] = (*LRUCache[string, *ports.Response])(nil)
