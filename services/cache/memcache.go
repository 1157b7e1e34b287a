package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService over a memcached instance. The
// harvester keeps only small control values here; the important one is the
// navigation block key written when the quiz site rate-limits a session,
// which every browser session checks before navigating.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a service for the given memcached address.
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value. A miss comes back as memcache.ErrCacheMiss, which
// block-key readers treat as "not blocked".
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value with an expiration. Memcache expirations are whole
// seconds; sub-second durations round up so a short block never expires
// before it takes effect.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	seconds := int32(expiration / time.Second)
	if seconds == 0 && expiration > 0 {
		seconds = 1
	}
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: seconds,
	})
}

// Delete removes a value, lifting a block early.
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}
