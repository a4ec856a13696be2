package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/movement"
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, compress bool) *MovementStore {
	t.Helper()
	s, err := NewMovementStore(config.StorageConfig{Path: t.TempDir(), Compression: compress})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeState(unit uint64, goal vec.Vec2) movement.State {
	req := movement.Request{
		Unit:     unit,
		Size:     physics.NewFootprint(1, 1),
		Goal:     goal,
		GoalSize: physics.NewFootprint(1, 1),
		Layer:    world.LayerSurface,
		MaxRange: 1,
	}
	var res movement.Result
	res.Set([]vec.Direction{vec.DirE, vec.DirE, vec.DirSE})
	res.Outcome = pathfind.OutcomeMoved
	return movement.State{Request: req, Result: res}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		s := openStore(t, compress)
		ctx := context.Background()

		states := []movement.State{
			makeState(300, vec.Vec2{X: 1, Y: 2}),
			makeState(7, vec.Vec2{X: 10, Y: 0}),
			makeState(42, vec.Vec2{X: -3, Y: 5}),
		}
		id, err := s.Save(ctx, states)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		got, err := s.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, got, 3, "compress=%v", compress)

		// Записи читаются по возрастанию ID
		assert.Equal(t, states[1], got[0])
		assert.Equal(t, states[2], got[1])
		assert.Equal(t, states[0], got[2])
	}
}

func TestSaveAsReplaces(t *testing.T) {
	s := openStore(t, true)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, s.SaveAs(ctx, id, []movement.State{makeState(1, vec.Vec2{}), makeState(2, vec.Vec2{})}))
	require.NoError(t, s.SaveAs(ctx, id, []movement.State{makeState(3, vec.Vec2{X: 4})}))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1, "Старые записи удалены")
	assert.Equal(t, uint64(3), got[0].Request.Unit)
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t, false)
	ctx := context.Background()

	a, err := s.Save(ctx, []movement.State{makeState(1, vec.Vec2{})})
	require.NoError(t, err)
	b, err := s.Save(ctx, []movement.State{makeState(1, vec.Vec2{}), makeState(2, vec.Vec2{})})
	require.NoError(t, err)

	saves, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 2)

	units := map[uuid.UUID]int{}
	for _, info := range saves {
		units[info.ID] = info.Units
		assert.False(t, info.Created.IsZero())
	}
	assert.Equal(t, 1, units[a])
	assert.Equal(t, 2, units[b])

	require.NoError(t, s.Delete(ctx, a))
	_, err = s.Load(ctx, a)
	assert.ErrorIs(t, err, ErrSaveNotFound)

	saves, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, b, saves[0].ID)
}

func TestEmptySave(t *testing.T) {
	s := openStore(t, true)
	ctx := context.Background()

	id, err := s.Save(ctx, nil)
	require.NoError(t, err)

	got, err := s.Load(ctx, id)
	require.NoError(t, err, "Пустое сохранение существует")
	assert.Empty(t, got)
}

func TestLoadMissing(t *testing.T) {
	s := openStore(t, false)
	_, err := s.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSaveNotFound)
}

func TestCorruptRecord(t *testing.T) {
	s := openStore(t, true)
	ctx := context.Background()

	id, err := s.Save(ctx, []movement.State{makeState(5, vec.Vec2{})})
	require.NoError(t, err)

	for _, val := range [][]byte{{}, {encodingZstd, 1, 2, 3}, {9, 0}, {encodingRaw, 0xff}} {
		require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(unitKey(id, 5), val)
		}))
		_, err = s.Load(ctx, id)
		assert.True(t, errors.Is(err, movement.ErrCorruptRecord), "значение %v: %v", val, err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := openStore(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, []movement.State{makeState(1, vec.Vec2{})})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClosedStore(t *testing.T) {
	s := openStore(t, false)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Повторное закрытие безопасно")

	ctx := context.Background()
	_, err := s.Save(ctx, nil)
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = s.Load(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(ctx, uuid.New()), ErrStoreClosed)
}
