package traverse

import (
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// Goal описывает целевую область: прямоугольник цели и допустимое кольцо дальности
type Goal struct {
	Rect     vec.Rect
	MinRange int
	MaxRange int
}

// InRange проверяет, что объект fp в позиции pos стоит в кольце дальности цели
func (g Goal) InRange(pos vec.Vec2, fp physics.Footprint) bool {
	gap := fp.Rect(pos).Gap(g.Rect)
	return gap >= g.MinRange && gap <= g.MaxRange
}

// Reachable проверяет связность: может ли объект fp из start дойти до цели по маске.
// Узлы обхода - позиции левой верхней клетки объекта.
// Дешевле полного поиска и не ограничен длиной пути.
func Reachable(l *world.Layer, start vec.Vec2, fp physics.Footprint, goal Goal, mask world.TileFlag) bool {
	if goal.InRange(start, fp) {
		return true
	}

	t := ForLayer(l)
	t.PushPos(start)
	return t.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		if pos != start && l.FootprintBlocked(pos, fp, mask) {
			return VisitDeadEnd
		}
		if goal.InRange(pos, fp) {
			return VisitFinished
		}
		return VisitOk
	}))
}

// RegionMap - разметка слоя на связные области для одной маски.
// Номер 0 означает заблокированную клетку.
type RegionMap struct {
	Width  int
	Height int
	Count  int

	labels []int32
}

// Region возвращает номер области клетки или 0
func (m *RegionMap) Region(p vec.Vec2) int32 {
	if p.X < 0 || p.Y < 0 || p.X >= m.Width || p.Y >= m.Height {
		return 0
	}
	return m.labels[p.Y*m.Width+p.X]
}

// Connected сообщает, что обе клетки проходимы и лежат в одной области
func (m *RegionMap) Connected(a, b vec.Vec2) bool {
	ra := m.Region(a)
	return ra != 0 && ra == m.Region(b)
}

// Size возвращает количество клеток области
func (m *RegionMap) Size(region int32) int {
	n := 0
	for _, label := range m.labels {
		if label == region {
			n++
		}
	}
	return n
}

// LabelRegions размечает связные проходимые области слоя для маски.
// Области нумеруются с 1 в порядке обхода строк, что делает разметку воспроизводимой.
func LabelRegions(l *world.Layer, mask world.TileFlag) *RegionMap {
	m := &RegionMap{
		Width:  l.Width,
		Height: l.Height,
		labels: make([]int32, l.Width*l.Height),
	}

	t := ForLayer(l)
	var current int32
	visitor := VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		if l.CheckMask(pos, mask) {
			return VisitDeadEnd
		}
		m.labels[pos.Y*m.Width+pos.X] = current
		return VisitOk
	})

	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			p := vec.Vec2{X: x, Y: y}
			if t.IsVisited(p) || l.CheckMask(p, mask) {
				continue
			}
			current++
			t.PushPos(p)
			t.Run(visitor)
		}
	}

	m.Count = int(current)
	return m
}

// FindNearest ищет ближайшую по числу шагов клетку, для которой match вернул true.
// Обход идёт по клеткам, проходимым для маски; сама найденная клетка может быть
// непроходимой (например, лес при поиске древесины). maxDist ограничивает
// расстояние Чебышёва от start, 0 - без ограничения.
func FindNearest(l *world.Layer, start vec.Vec2, mask world.TileFlag, maxDist int, match func(vec.Vec2) bool) (vec.Vec2, bool) {
	if !l.InBounds(start) {
		return vec.Vec2{}, false
	}

	var found vec.Vec2
	t := ForLayer(l)
	t.PushPos(start)
	ok := t.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		if maxDist > 0 && start.Chebyshev(pos) > maxDist {
			return VisitDeadEnd
		}
		if match(pos) {
			found = pos
			return VisitFinished
		}
		if pos != start && l.CheckMask(pos, mask) {
			return VisitDeadEnd
		}
		return VisitOk
	}))
	return found, ok
}

// FindPlacement ищет ближайшую к near позицию, где объект fp помещается целиком.
// Обход не ограничен проходимостью: подходит для высадки и размещения объектов.
func FindPlacement(l *world.Layer, near vec.Vec2, fp physics.Footprint, mask world.TileFlag, maxDist int) (vec.Vec2, bool) {
	if !l.InBounds(near) {
		return vec.Vec2{}, false
	}

	var found vec.Vec2
	t := ForLayer(l)
	t.PushPos(near)
	ok := t.Run(VisitorFunc(func(t *Traversal, pos, from vec.Vec2) VisitResult {
		if maxDist > 0 && near.Chebyshev(pos) > maxDist {
			return VisitDeadEnd
		}
		if !l.FootprintBlocked(pos, fp, mask) {
			found = pos
			return VisitFinished
		}
		return VisitOk
	}))
	return found, ok
}
