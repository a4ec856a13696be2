package traverse

import (
	"testing"

	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtentPadding(t *testing.T) {
	e := NewExtent(4, 3)
	assert.Equal(t, 5, e.Stride)
	assert.Equal(t, 16, e.Size())

	// x = -1 и x = Width попадают в служебные ячейки, а не в соседнюю строку
	for y := 0; y < 3; y++ {
		assert.True(t, e.IsPadding(e.Index(vec.Vec2{X: -1, Y: y})), "Левый край строки %d", y)
		assert.True(t, e.IsPadding(e.Index(vec.Vec2{X: 4, Y: y})), "Правый край строки %d", y)
		for x := 0; x < 4; x++ {
			p := vec.Vec2{X: x, Y: y}
			idx := e.Index(p)
			assert.False(t, e.IsPadding(idx))
			assert.Equal(t, p, e.Position(idx))
		}
	}
}

func TestTraversalSingleEnqueue(t *testing.T) {
	tr := New(7, 5)
	tr.PushPos(vec.Vec2{X: 3, Y: 2})

	pops := make(map[vec.Vec2]int)
	ok := tr.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		pops[pos]++
		return VisitOk
	}))

	assert.False(t, ok, "Без VisitFinished обход завершается неудачей")
	assert.Len(t, pops, 35)
	for p, n := range pops {
		assert.Equal(t, 1, n, "Клетка %v извлечена %d раз", p, n)
	}
	assert.Equal(t, 35, tr.Popped())
}

func TestTraversalFromAndOrder(t *testing.T) {
	tr := New(5, 5)
	start := vec.Vec2{X: 2, Y: 2}
	tr.PushPos(start)

	parents := make(map[vec.Vec2]vec.Vec2)
	tr.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		parents[pos] = from
		return VisitOk
	}))

	assert.Equal(t, start, parents[start], "Для затравки from совпадает с pos")
	assert.Equal(t, start, parents[vec.Vec2{X: 2, Y: 1}])
	assert.Equal(t, 1, parents[vec.Vec2{X: 0, Y: 0}].Chebyshev(vec.Vec2{X: 0, Y: 0}))

	assert.Equal(t, int32(1), tr.Order(start))
	assert.Equal(t, int32(2), tr.Order(vec.Vec2{X: 2, Y: 1}), "Первый сосед - север")
	assert.True(t, tr.IsReached(vec.Vec2{X: 4, Y: 4}))
	assert.True(t, tr.IsInvalid(vec.Vec2{X: 5, Y: 0}))
}

func TestTraversalDeadEndAndCancel(t *testing.T) {
	tr := New(5, 1)
	tr.PushPos(vec.Vec2{X: 0, Y: 0})

	wall := vec.Vec2{X: 2, Y: 0}
	var seen []vec.Vec2
	ok := tr.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		seen = append(seen, pos)
		if pos == wall {
			return VisitDeadEnd
		}
		return VisitOk
	}))

	assert.False(t, ok)
	assert.Equal(t, []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, seen)
	assert.True(t, tr.IsDeadEnd(wall))
	assert.True(t, tr.IsVisited(wall))
	assert.False(t, tr.IsReached(wall), "Тупик не считается достигнутой клеткой")
	assert.False(t, tr.IsVisited(vec.Vec2{X: 3, Y: 0}))

	cancel := New(5, 5)
	cancel.PushPos(vec.Vec2{X: 0, Y: 0})
	calls := 0
	ok = cancel.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		calls++
		return VisitCancel
	}))
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestTraversalFinished(t *testing.T) {
	tr := New(10, 10)
	tr.PushPos(vec.Vec2{X: 0, Y: 0})
	target := vec.Vec2{X: 6, Y: 3}

	ok := tr.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		if pos == target {
			return VisitFinished
		}
		return VisitOk
	}))
	assert.True(t, ok)
	assert.Less(t, tr.Popped(), 100)
}

func TestTraversalPanicsOnUnmarkedCell(t *testing.T) {
	tr := New(3, 3)
	tr.PushPos(vec.Vec2{X: 1, Y: 1})
	// Порча состояния: снимаем отметку посещения у клетки в очереди
	tr.values[tr.extent.Index(vec.Vec2{X: 1, Y: 1})] = valueUnvisited

	assert.Panics(t, func() {
		tr.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult { return VisitOk }))
	})
}

func TestTraversalSeeding(t *testing.T) {
	l := world.NewLayer(world.LayerSurface, 8, 8)
	l.SetTerrain(vec.Vec2{X: 3, Y: 3}, world.FlagWall)

	t.Run("Rectangle", func(t *testing.T) {
		tr := ForLayer(l)
		tr.PushRectangle(vec.NewRect(vec.Vec2{X: 2, Y: 2}, 3, 2))
		assert.Equal(t, 6, tr.Pending())

		tr = ForLayer(l)
		tr.PushRectangleIfPassable(vec.NewRect(vec.Vec2{X: 2, Y: 2}, 3, 2), l, world.MaskLandUnit)
		assert.Equal(t, 5, tr.Pending(), "Стена отфильтрована")
	})

	t.Run("Border", func(t *testing.T) {
		tr := ForLayer(l)
		tr.PushRectangleBorder(vec.NewRect(vec.Vec2{X: 2, Y: 2}, 3, 3))
		assert.Equal(t, 8, tr.Pending())
		assert.False(t, tr.IsVisited(vec.Vec2{X: 3, Y: 3}), "Центр не входит в контур")

		tr = ForLayer(l)
		tr.PushRectangleBorder(vec.NewRect(vec.Vec2{X: -1, Y: -1}, 3, 3))
		assert.Equal(t, 3, tr.Pending(), "Клетки за краем слоя пропускаются")
	})

	t.Run("UnitAndNeighbor", func(t *testing.T) {
		tr := ForLayer(l)
		tr.PushUnitPosAndNeighbor(vec.Vec2{X: 4, Y: 4}, physics.NewFootprint(2, 2))
		assert.Equal(t, 16, tr.Pending())

		tr = ForLayer(l)
		tr.PushUnitPosAndNeighborIfPassable(vec.Vec2{X: 4, Y: 4}, physics.NewFootprint(2, 2), l, world.MaskLandUnit)
		assert.Equal(t, 15, tr.Pending())
	})

	t.Run("Neighbor", func(t *testing.T) {
		tr := ForLayer(l)
		tr.PushNeighbor(vec.Vec2{X: 0, Y: 0})
		assert.Equal(t, 3, tr.Pending())

		tr = ForLayer(l)
		tr.PushNeighborIfPassable(vec.Vec2{X: 2, Y: 2}, l, world.MaskLandUnit)
		assert.Equal(t, 7, tr.Pending())
		assert.False(t, tr.PushPosIfPassable(vec.Vec2{X: 3, Y: 3}, l, world.MaskLandUnit))
		assert.False(t, tr.PushPos(vec.Vec2{X: -5, Y: 1}))
	})
}

func TestReachable(t *testing.T) {
	l := world.NewLayer(world.LayerSurface, 10, 10)
	// Вертикальная стена с проходом внизу
	for y := 0; y < 9; y++ {
		l.SetTerrain(vec.Vec2{X: 5, Y: y}, world.FlagWall)
	}
	goal := Goal{Rect: vec.NewRect(vec.Vec2{X: 8, Y: 1}, 1, 1)}

	assert.True(t, Reachable(l, vec.Vec2{X: 1, Y: 1}, physics.Single, goal, world.MaskLandUnit))
	assert.False(t, Reachable(l, vec.Vec2{X: 1, Y: 1}, physics.NewFootprint(2, 2), goal, world.MaskLandUnit), "Объект 2x2 не пролезает в проход шириной 1")

	l.SetTerrain(vec.Vec2{X: 5, Y: 9}, world.FlagWall)
	assert.False(t, Reachable(l, vec.Vec2{X: 1, Y: 1}, physics.Single, goal, world.MaskLandUnit))

	// Дальняя атака через стену
	ranged := Goal{Rect: goal.Rect, MaxRange: 4}
	assert.True(t, Reachable(l, vec.Vec2{X: 1, Y: 1}, physics.Single, ranged, world.MaskLandUnit))
}

func TestLabelRegions(t *testing.T) {
	l := world.NewLayer(world.LayerSurface, 6, 4)
	for y := 0; y < 4; y++ {
		l.SetTerrain(vec.Vec2{X: 2, Y: y}, world.FlagWaterAllowed)
	}
	regions := LabelRegions(l, world.MaskLandUnit)

	assert.Equal(t, 2, regions.Count)
	assert.Equal(t, int32(1), regions.Region(vec.Vec2{X: 0, Y: 0}))
	assert.Equal(t, int32(2), regions.Region(vec.Vec2{X: 5, Y: 3}))
	assert.Equal(t, int32(0), regions.Region(vec.Vec2{X: 2, Y: 1}))
	assert.False(t, regions.Connected(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 5, Y: 0}))
	assert.Equal(t, 8, regions.Size(1))
	assert.Equal(t, 12, regions.Size(2))

	// Мост соединяет берега
	l.SetTerrain(vec.Vec2{X: 2, Y: 2}, world.FlagBridge)
	regions = LabelRegions(l, world.MaskLandUnit)
	assert.Equal(t, 1, regions.Count)
	assert.True(t, regions.Connected(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 5, Y: 0}))
}

func TestFindNearest(t *testing.T) {
	l := world.NewLayer(world.LayerSurface, 10, 10)
	l.SetTerrain(vec.Vec2{X: 7, Y: 2}, world.FlagForest)
	l.SetTerrain(vec.Vec2{X: 2, Y: 8}, world.FlagForest)

	isForest := func(p vec.Vec2) bool { return l.Flags(p).Has(world.FlagForest) }

	p, ok := FindNearest(l, vec.Vec2{X: 5, Y: 3}, world.MaskLandUnit, 0, isForest)
	require.True(t, ok)
	assert.Equal(t, vec.Vec2{X: 7, Y: 2}, p)

	_, ok = FindNearest(l, vec.Vec2{X: 0, Y: 0}, world.MaskLandUnit, 3, isForest)
	assert.False(t, ok, "Лес дальше ограничения")
}

func TestFindPlacement(t *testing.T) {
	l := world.NewLayer(world.LayerSurface, 8, 8)
	for x := 0; x < 8; x++ {
		l.SetTerrain(vec.Vec2{X: x, Y: 4}, world.FlagRocks)
	}

	p, ok := FindPlacement(l, vec.Vec2{X: 3, Y: 4}, physics.NewFootprint(2, 2), world.MaskLandUnit, 0)
	require.True(t, ok)
	assert.False(t, l.FootprintBlocked(p, physics.NewFootprint(2, 2), world.MaskLandUnit))
	assert.Equal(t, 1, vec.Vec2{X: 3, Y: 4}.Chebyshev(p))

	_, ok = FindPlacement(l, vec.Vec2{X: 3, Y: 4}, physics.NewFootprint(9, 1), world.MaskLandUnit, 0)
	assert.False(t, ok, "Объект шире слоя не помещается нигде")
}
