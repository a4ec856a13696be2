package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversFiltered(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []TickCompleted
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeTickCompleted}}, func(ctx context.Context, ev *Envelope) {
		var tc TickCompleted
		if ev.Decode(&tc) == nil {
			mu.Lock()
			got = append(got, tc)
			mu.Unlock()
		}
	})
	require.NoError(t, err)

	tick, err := NewEnvelope("test", TypeTickCompleted, 1, TickCompleted{Tick: 7, Moved: 3})
	require.NoError(t, err)
	other, err := NewEnvelope("test", TypeSaveCreated, 1, SaveEvent{SaveID: "x"})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), tick))
	require.NoError(t, bus.Publish(context.Background(), other))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, TickCompleted{Tick: 7, Moved: 3}, got[0])
	mu.Unlock()
	assert.Equal(t, uint64(2), bus.Metrics().Published)
}

func TestMemoryBusCountersAndClose(t *testing.T) {
	bus := NewMemoryBus(1)
	block := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-block
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		ev, err := NewEnvelope("test", TypeTerrainChanged, 0, TerrainChanged{X: i})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
	}

	// Часть событий могла быть отброшена при заполненном буфере, но ни одно не потеряно молча
	stats := bus.Metrics()
	assert.Equal(t, uint64(20), stats.Published+stats.Dropped)

	close(block)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, err := NewEnvelope("test", TypeTerrainChanged, 9, TerrainChanged{})
	require.NoError(t, err)
	assert.ErrorIs(t, bus.Publish(ctx, ev), ErrBusClosed)
	_, err = bus.Subscribe(ctx, Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestMatchFilter(t *testing.T) {
	ev := &Envelope{EventType: TypeTickCompleted, Source: "navserver"}
	assert.True(t, matchFilter(ev, Filter{}))
	assert.True(t, matchFilter(ev, Filter{Types: []string{TypeSaveCreated, TypeTickCompleted}}))
	assert.False(t, matchFilter(ev, Filter{Types: []string{TypeSaveCreated}}))
	assert.False(t, matchFilter(ev, Filter{Sources: []string{"other"}}))
	assert.Equal(t, "nav.TickCompleted", Subject(TypeTickCompleted))
}

func TestMetricsExporterCollect(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	for i := 0; i < 3; i++ {
		ev, err := NewEnvelope("test", TypeTickCompleted, 1, TickCompleted{Tick: uint64(i)})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	prev := me.Collect(Stats{})
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
	me.Collect(prev)
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published), "Повторный сбор не удваивает счётчик")
}
