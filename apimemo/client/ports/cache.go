package clientports

// Cache is a bounded key/value store used to memoize API responses.
// Implementations must be safe for concurrent use.
type Cache[K comparable, V any] interface {
	Get(key K) (value V, ok bool)
	Put(key K, value V)
	Remove(key K) bool
	Len() int
}

// PrefixInvalidator is implemented by caches that can drop every key sharing a
// prefix, e.g. all responses of one endpoint.
type PrefixInvalidator interface {
	RemovePrefix(prefix string) int
}
