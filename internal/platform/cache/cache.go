// Package cache keeps recently fetched values in memory with a TTL.
package cache

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key is missing or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache stores values of one type by string key.
type Cache[V any] interface {
	// Get retrieves a value and when it was stored.
	Get(key string) (V, time.Time, error)

	// Set stores a value with TTL
	Set(key string, value V, ttl time.Duration)

	// Delete removes a key from cache
	Delete(key string)

	// Close stops background cleanup
	Close() error
}
