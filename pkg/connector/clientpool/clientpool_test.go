package clientpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_CachesByKey(t *testing.T) {
	p := New(4, time.Minute)
	k := Key{ConnectTimeout: time.Second, TotalTimeout: 5 * time.Second}

	c1, err := p.Get(k)
	require.NoError(t, err)
	c2, err := p.Get(k)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Builds)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestGet_DistinctKeysBuildSeparately(t *testing.T) {
	p := New(4, time.Minute)
	_, err := p.Get(Key{TotalTimeout: time.Second})
	require.NoError(t, err)
	_, err = p.Get(Key{TotalTimeout: 2 * time.Second})
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.Builds)
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, 2, stats.Size)
}

func TestGet_EvictsOldestOverCapacity(t *testing.T) {
	p := New(2, time.Minute)
	_, _ = p.Get(Key{TotalTimeout: 1 * time.Second})
	_, _ = p.Get(Key{TotalTimeout: 2 * time.Second})
	_, _ = p.Get(Key{TotalTimeout: 3 * time.Second})

	stats := p.Stats()
	assert.LessOrEqual(t, stats.Size, 2)
	assert.Equal(t, uint64(1), stats.Evictions)
}

func TestGet_InvalidProxyURL(t *testing.T) {
	p := New(4, time.Minute)
	_, err := p.Get(Key{ProxyURL: "://bad-url"})
	assert.Error(t, err)
}
