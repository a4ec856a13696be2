package cache

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))

	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(time.Second)
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	now = now.Add(time.Hour)
	_, err = m.Get(ctx, "b")
	assert.NoError(t, err, "Без TTL не истекает")

	require.NoError(t, m.Delete(ctx, "b"))
	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	metrics := m.GetMetrics()
	assert.Equal(t, int64(4), metrics.TotalRequests)
	assert.Equal(t, int64(2), metrics.CacheHits)
	assert.InDelta(t, 0.5, metrics.HitRatio, 1e-9)
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache()

	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestRegionCacheByVersion(t *testing.T) {
	ctx := context.Background()
	rc := NewRegionCache(NewMemoryCache(), "test", time.Minute)

	_, err := rc.Get(ctx, world.LayerSurface, 1, world.MaskLandUnit)
	assert.ErrorIs(t, err, ErrCacheMiss)

	summary := RegionSummary{Count: 2, Sizes: []int{112, 128}}
	require.NoError(t, rc.Put(ctx, world.LayerSurface, 1, world.MaskLandUnit, summary))

	got, err := rc.Get(ctx, world.LayerSurface, 1, world.MaskLandUnit)
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	_, err = rc.Get(ctx, world.LayerSurface, 2, world.MaskLandUnit)
	assert.ErrorIs(t, err, ErrCacheMiss, "Новая версия слоя - новая запись")
	_, err = rc.Get(ctx, world.LayerSurface, 1, world.MaskSeaUnit)
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Equal(t, int64(1), rc.Metrics().CacheHits)
}

func TestSummaryCodec(t *testing.T) {
	empty, err := decodeSummary(encodeSummary(RegionSummary{}))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)

	_, err = decodeSummary([]byte{0x08, 0x02}) // count=2 без размеров
	assert.ErrorIs(t, err, ErrCorruptSummary)
	_, err = decodeSummary([]byte{0x08})
	assert.ErrorIs(t, err, ErrCorruptSummary)
}

func TestSummarize(t *testing.T) {
	w := world.NewWorld()
	l, err := w.AddLayer(16, 16)
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		l.Tile(vec.Vec2{X: 7, Y: y}).Flags |= world.FlagWall
	}

	s := Summarize(traverse.LabelRegions(l, world.MaskLandUnit))
	assert.Equal(t, RegionSummary{Count: 2, Sizes: []int{7 * 16, 8 * 16}}, s)
}

func TestRedisCache(t *testing.T) {
	cfg := config.CacheConfig{RedisURL: "localhost:6379", KeyPrefix: "nav-test:"}
	r, err := NewRedisCache(cfg)
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, r.Delete(ctx, "k"))
	_, err = r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
