package common

import "time"

// CacheInterface is the read-through cache used for per-tenant lookup tables
type CacheInterface interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, duration time.Duration)

	// Delete drops the entry; the next GetOrSet reloads it
	Delete(key string)

	// GetOrSet returns the cached value, or runs loader and caches its
	// result. Concurrent callers for the same key share one loader call.
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)
}
