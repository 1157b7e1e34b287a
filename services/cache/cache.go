package cache

import (
	"time"
)

// CacheService represents a generic cache service. The harvester uses it to
// hold fetch-block keys: when the quiz site rate-limits a host, a key blocks
// further page loads for a cool-down window.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
