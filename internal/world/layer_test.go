package world

import (
	"testing"

	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	id       uint64
	pos      vec.Vec2
	size     physics.Footprint
	presence TileFlag
	moving   bool
}

func (o *testObject) ID() uint64                   { return o.id }
func (o *testObject) Position() vec.Vec2           { return o.pos }
func (o *testObject) Footprint() physics.Footprint { return o.size }
func (o *testObject) Layer() LayerID               { return LayerSurface }
func (o *testObject) Presence() TileFlag           { return o.presence }
func (o *testObject) Moving() bool                 { return o.moving }

func TestLayerInsertRemove(t *testing.T) {
	l := NewLayer(LayerSurface, 8, 8)
	a := &testObject{id: 1, pos: vec.Vec2{X: 2, Y: 2}, size: physics.NewFootprint(2, 2), presence: FlagLandUnit}
	b := &testObject{id: 2, pos: vec.Vec2{X: 3, Y: 3}, size: physics.Single, presence: FlagLandUnit}

	l.Insert(a)
	l.Insert(b)

	shared := vec.Vec2{X: 3, Y: 3}
	assert.True(t, l.Flags(shared).Has(FlagLandUnit))
	assert.Len(t, l.Tile(shared).Occupants(), 2)

	// Бит остаётся, пока на клетке есть другой наземный юнит
	require.True(t, l.Remove(a))
	assert.True(t, l.Flags(shared).Has(FlagLandUnit))
	assert.False(t, l.Flags(vec.Vec2{X: 2, Y: 2}).Has(FlagLandUnit))
	assert.Len(t, l.Tile(shared).Occupants(), 1)

	require.True(t, l.Remove(b))
	assert.False(t, l.Flags(shared).Has(FlagLandUnit))
	assert.False(t, l.Remove(b), "Повторное удаление ничего не делает")
}

func TestLayerUpdateUsesRecordedPlacement(t *testing.T) {
	l := NewLayer(LayerSurface, 8, 8)
	o := &testObject{id: 7, pos: vec.Vec2{X: 1, Y: 1}, size: physics.Single, presence: FlagLandUnit}
	l.Insert(o)

	o.pos = vec.Vec2{X: 5, Y: 5}
	l.Update(o)

	assert.False(t, l.Flags(vec.Vec2{X: 1, Y: 1}).Has(FlagLandUnit), "Старая клетка должна освободиться")
	assert.True(t, l.Flags(vec.Vec2{X: 5, Y: 5}).Has(FlagLandUnit))

	pos, ok := l.Placement(7)
	assert.True(t, ok)
	assert.Equal(t, vec.Vec2{X: 5, Y: 5}, pos)
}

func TestLayerTerrainEvents(t *testing.T) {
	l := NewLayer(LayerSurface, 4, 4)
	var events []TerrainEvent
	id := l.Subscribe(func(ev TerrainEvent) { events = append(events, ev) })

	p := vec.Vec2{X: 1, Y: 2}
	l.SetTerrain(p, FlagWall)
	l.SetTerrain(p, FlagWall) // без изменений - без события
	l.ClearTerrain(p, FlagWall)
	l.SetSpeedClass(p, 3)

	require.Len(t, events, 3)
	assert.Equal(t, EventTypeTerrainChange, events[0].GetType())
	assert.Equal(t, p, events[0].Position)
	assert.True(t, events[0].NewFlags.Has(FlagWall))
	assert.Equal(t, uint64(3), l.Version())
	assert.Equal(t, 8, l.Cost(p))

	// Биты присутствия нельзя выставить как ландшафт
	l.SetTerrain(p, FlagLandUnit)
	assert.False(t, l.Flags(p).Has(FlagLandUnit))

	l.Unsubscribe(id)
	l.SetTerrain(p, FlagRocks)
	assert.Len(t, events, 3)
}

func TestLayerBuildingBumpsVersion(t *testing.T) {
	l := NewLayer(LayerSurface, 6, 6)
	var got []EventType
	l.Subscribe(func(ev TerrainEvent) { got = append(got, ev.EventType) })

	unit := &testObject{id: 1, pos: vec.Vec2{X: 0, Y: 0}, size: physics.Single, presence: FlagLandUnit}
	l.Insert(unit)
	assert.Equal(t, uint64(0), l.Version(), "Юниты не меняют связность")

	farm := &testObject{id: 2, pos: vec.Vec2{X: 2, Y: 2}, size: physics.NewFootprint(2, 2), presence: FlagBuilding}
	l.Insert(farm)
	l.Remove(farm)

	assert.Equal(t, uint64(2), l.Version())
	assert.Equal(t, []EventType{EventTypeBuildingPlaced, EventTypeBuildingRemoved}, got)
}

func TestLayerCheckMaskOutOfBounds(t *testing.T) {
	l := NewLayer(LayerSurface, 3, 3)
	assert.True(t, l.CheckMask(vec.Vec2{X: -1, Y: 0}, 0))
	assert.True(t, l.CheckMask(vec.Vec2{X: 3, Y: 0}, 0))
	assert.False(t, l.CheckMask(vec.Vec2{X: 2, Y: 2}, MaskLandUnit))

	assert.True(t, l.FootprintBlocked(vec.Vec2{X: 2, Y: 2}, physics.NewFootprint(2, 1), MaskLandUnit), "Объект выходит за край")
	assert.False(t, l.FootprintBlocked(vec.Vec2{X: 1, Y: 1}, physics.NewFootprint(2, 2), MaskLandUnit))
}

func TestWorldLayers(t *testing.T) {
	w := NewWorld()
	surface, err := w.AddLayer(10, 5)
	require.NoError(t, err)
	under, err := w.AddLayer(4, 4)
	require.NoError(t, err)

	assert.Equal(t, LayerSurface, surface.ID)
	assert.Equal(t, LayerUnderground, under.ID)
	assert.Equal(t, 2, w.LayerCount())

	got, err := w.Layer(LayerUnderground)
	require.NoError(t, err)
	assert.Same(t, under, got)

	_, err = w.Layer(LayerSky)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(12345).Generate(NewLayer(LayerSurface, 32, 32))
	b := NewGenerator(12345).Generate(NewLayer(LayerSurface, 32, 32))

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			p := vec.Vec2{X: x, Y: y}
			require.Equal(t, a.Flags(p), b.Flags(p), "Клетка %v", p)
		}
	}
	assert.Equal(t, uint64(1), a.Version())
}
