package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "compliancehub:dashboard:inst-1", dashboardKey("inst-1"))
	assert.Equal(t, "compliancehub:lock:deadline-monitor", lockKey("deadline-monitor"))
	assert.Equal(t, "compliancehub:ratelimit:ip:1.2.3.4", rateLimitKey("ip:1.2.3.4"))
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern("ch:compliance:*"))
	assert.True(t, hasPattern("ch:compliance:inst-?:dashboard"))
	assert.False(t, hasPattern("ch:compliance:inst-1:dashboard"))
}

func TestOptions(t *testing.T) {
	opts, err := options(ClientConfig{URL: "redis://:secret@cache:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = options(ClientConfig{Addr: "localhost:6379", TLSEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.NotNil(t, opts.TLSConfig)

	_, err = options(ClientConfig{URL: "http://nope"})
	assert.Error(t, err)
}

func TestNewDashboardCacheDefaultTTL(t *testing.T) {
	dc := NewDashboardCache(&Client{}, 0)
	assert.Equal(t, DefaultDashboardTTL, dc.ttl)

	dc = NewDashboardCache(&Client{}, 5*time.Second)
	assert.Equal(t, 5*time.Second, dc.ttl)
}

func TestSlidingWindowScriptEmbedded(t *testing.T) {
	assert.Contains(t, slidingWindowLua, "ZREMRANGEBYSCORE")
}
