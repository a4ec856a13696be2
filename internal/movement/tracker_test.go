package movement

import (
	"testing"

	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerOrderByID(t *testing.T) {
	f := newFixture(t, 10, 10, pathfind.DefaultSettings(), 8)
	tr := NewTracker(f.planner)

	for _, id := range []uint64{5, 1, 3} {
		tr.Add(newUnit(id, vec.Vec2{X: int(id), Y: 0}))
	}
	again := tr.Add(newUnit(3, vec.Vec2{X: 7, Y: 7}))
	assert.Equal(t, vec.Vec2{X: 7, Y: 7}, again.Unit.Position(), "Повторное добавление обновляет объект")

	ids := func() []uint64 {
		var out []uint64
		for _, e := range tr.Entries() {
			out = append(out, e.Unit.ID())
		}
		return out
	}
	assert.Equal(t, []uint64{1, 3, 5}, ids())

	assert.True(t, tr.Remove(3))
	assert.False(t, tr.Remove(3))
	assert.Equal(t, []uint64{1, 5}, ids())

	_, ok := tr.Get(3)
	assert.False(t, ok)
	assert.False(t, tr.Order(3, vec.Vec2{}, physics.Single, world.LayerSurface, 0, 0))
	assert.Equal(t, 2, tr.Len())
}

func TestTrackerTickMovesAll(t *testing.T) {
	f := newFixture(t, 20, 20, pathfind.DefaultSettings(), 8)
	tr := NewTracker(f.planner)

	a := newUnit(1, vec.Vec2{X: 0, Y: 0})
	b := newUnit(2, vec.Vec2{X: 19, Y: 19})
	for _, u := range []*testUnit{a, b} {
		f.layer.Insert(u)
		tr.Add(u)
	}
	require.True(t, tr.Order(1, vec.Vec2{X: 10, Y: 4}, physics.Single, world.LayerSurface, 0, 0))
	require.True(t, tr.Order(2, vec.Vec2{X: 2, Y: 17}, physics.Single, world.LayerSurface, 0, 1))

	apply := func(e *Entry, d vec.Direction) {
		f.move(e.Unit.(*testUnit), d)
	}

	var stats Stats
	for tick := 0; tick < 40; tick++ {
		stats = tr.Tick(apply)
		if stats.Reached == 2 {
			break
		}
	}
	assert.Equal(t, 2, stats.Reached)
	assert.Equal(t, vec.Vec2{X: 10, Y: 4}, a.pos)
	assert.Equal(t, 1, b.pos.Chebyshev(vec.Vec2{X: 2, Y: 17}), "Объект остановился на максимальной дальности")
}

func TestTrackerInvalidatesCrossedRoutes(t *testing.T) {
	f := newFixture(t, 20, 20, pathfind.DefaultSettings(), 8)
	tr := NewTracker(f.planner)
	tr.Watch(f.layer)
	defer tr.Close()

	u := newUnit(1, vec.Vec2{X: 0, Y: 10})
	f.layer.Insert(u)
	e := tr.Add(u)
	tr.Order(1, vec.Vec2{X: 19, Y: 10}, physics.Single, world.LayerSurface, 0, 0)

	apply := func(e *Entry, d vec.Direction) { f.move(e.Unit.(*testUnit), d) }
	stats := tr.Tick(apply)
	require.Equal(t, 1, stats.Moved)
	require.False(t, e.Request.Recalculate)

	route := make(map[vec.Vec2]bool)
	pos := u.pos
	for _, d := range e.Result.Steps() {
		pos = pos.Step(d)
		route[pos] = true
	}

	// Изменение вне маршрута ничего не сбрасывает
	off := vec.Vec2{X: 10, Y: 0}
	require.False(t, route[off])
	f.layer.SetTerrain(off, world.FlagRocks)
	assert.False(t, e.Request.Recalculate)

	// Стена на маршруте
	onRoute := u.pos.Step(e.Result.Steps()[0]).Step(e.Result.Steps()[1])
	f.layer.SetTerrain(onRoute, world.FlagWall)
	assert.True(t, e.Request.Recalculate, "Маршрут через изменённую клетку устарел")

	stats = tr.Tick(apply)
	assert.Equal(t, 1, stats.Moved)
	assert.False(t, e.Request.Recalculate)

	// Здание на новом маршруте
	pos = u.pos
	for _, d := range e.Result.Steps()[:3] {
		pos = pos.Step(d)
	}
	building := newUnit(100, pos)
	building.moving = false
	building.presence = world.FlagBuilding
	f.layer.Insert(building)
	assert.True(t, e.Request.Recalculate, "Постройка на маршруте требует пересчёта")

	// После Close изменения больше не отслеживаются
	tr.Tick(apply)
	tr.Close()
	require.False(t, e.Result.Empty())
	f.layer.SetTerrain(u.pos.Step(e.Result.Peek()), world.FlagWall)
	assert.False(t, e.Request.Recalculate)
}

func TestTrackerSnapshotRestore(t *testing.T) {
	f := newFixture(t, 20, 20, pathfind.DefaultSettings(), 8)
	tr := NewTracker(f.planner)
	units := []*testUnit{newUnit(1, vec.Vec2{X: 0, Y: 0}), newUnit(2, vec.Vec2{X: 5, Y: 19})}
	for _, u := range units {
		f.layer.Insert(u)
		tr.Add(u)
	}
	tr.Order(1, vec.Vec2{X: 19, Y: 3}, physics.Single, world.LayerSurface, 0, 0)
	tr.Order(2, vec.Vec2{X: 5, Y: 0}, physics.NewFootprint(2, 2), world.LayerSurface, 1, 3)
	tr.Tick(func(e *Entry, d vec.Direction) { f.move(e.Unit.(*testUnit), d) })

	var records [][]byte
	for _, st := range tr.Snapshot() {
		data, err := st.MarshalBinary()
		require.NoError(t, err)
		records = append(records, data)
	}

	restored := NewTracker(f.planner)
	for _, u := range units {
		restored.Add(u)
	}
	var states []State
	for _, data := range records {
		var st State
		require.NoError(t, st.UnmarshalBinary(data))
		states = append(states, st)
	}
	states = append(states, State{Request: Request{Unit: 77}})
	assert.Equal(t, 2, restored.Restore(states), "Неизвестные объекты пропускаются")

	for i, e := range restored.Entries() {
		orig := tr.Entries()[i]
		assert.Equal(t, orig.Request, e.Request)
		assert.Equal(t, orig.Result, e.Result)
	}
}
