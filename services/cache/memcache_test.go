package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	_, err := mc.client.Get("test")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	err = mc.Set("block_key", []byte("30"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("block_key")
	assert.NoError(t, err)
	assert.Equal(t, "30", string(value))

	err = mc.Delete("block_key")
	assert.NoError(t, err)

	_, err = mc.Get("block_key")
	assert.Error(t, err)

	// Sub-second expirations round up to one second instead of never expiring
	err = mc.Set("short_block", []byte("1"), 200*time.Millisecond)
	assert.NoError(t, err)

	value, err = mc.Get("short_block")
	assert.NoError(t, err)
	assert.Equal(t, "1", string(value))
	mc.Delete("short_block")
}
