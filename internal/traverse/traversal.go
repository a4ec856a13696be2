package traverse

import (
	"fmt"

	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// VisitResult - решение посетителя по извлечённой клетке
type VisitResult int8

const (
	VisitOk       VisitResult = iota // Раскрыть соседей
	VisitFinished                    // Цель найдена, остановить обход с успехом
	VisitDeadEnd                     // Клетка посещена, но через неё не идти
	VisitCancel                      // Прервать обход с неудачей
)

// String возвращает имя результата
func (r VisitResult) String() string {
	switch r {
	case VisitOk:
		return "ok"
	case VisitFinished:
		return "finished"
	case VisitDeadEnd:
		return "dead_end"
	case VisitCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Visitor получает клетки в порядке обхода в ширину.
// from - клетка, из которой пришли (для затравок совпадает с pos).
type Visitor interface {
	Visit(t *Traversal, pos, from vec.Vec2) VisitResult
}

// VisitorFunc позволяет использовать функцию как Visitor
type VisitorFunc func(t *Traversal, pos, from vec.Vec2) VisitResult

// Visit вызывает f
func (f VisitorFunc) Visit(t *Traversal, pos, from vec.Vec2) VisitResult {
	return f(t, pos, from)
}

// Значения ячеек рабочей сетки
const (
	valueUnvisited int32 = 0  // Ещё не достигнута
	valueDeadEnd   int32 = -1 // Посещена, но непригодна как узел пути
	valueInvalid   int32 = -2 // Служебная ячейка за краем слоя
)

type entry struct {
	pos  vec.Vec2
	from vec.Vec2
}

// Traversal - состояние одного обхода в ширину. Создаётся на вызов
// и не переиспользуется между несвязанными поисками.
type Traversal struct {
	extent Extent
	values []int32
	queue  []entry
	head   int
	order  int32
	popped int
}

// New выделяет рабочую сетку под слой width x height
func New(width, height int) *Traversal {
	extent := NewExtent(width, height)
	t := &Traversal{
		extent: extent,
		values: make([]int32, extent.Size()),
		queue:  make([]entry, 0, min(width*height, 1024)),
	}
	for y := 0; y <= height; y++ {
		t.values[y*extent.Stride] = valueInvalid
	}
	return t
}

// ForLayer выделяет рабочую сетку под слой карты
func ForLayer(l *world.Layer) *Traversal {
	return New(l.Width, l.Height)
}

// Extent возвращает раскладку рабочей сетки
func (t *Traversal) Extent() Extent {
	return t.extent
}

// Get возвращает значение ячейки: 0 - не посещена, >0 - порядковый номер
// достижения, отрицательные - тупик или служебная ячейка
func (t *Traversal) Get(p vec.Vec2) int32 {
	if p.Y < 0 || p.Y >= t.extent.Height || p.X < -1 || p.X > t.extent.Width {
		return valueInvalid
	}
	return t.values[t.extent.Index(p)]
}

// Set записывает значение ячейки внутри слоя
func (t *Traversal) Set(p vec.Vec2, v int32) {
	if !t.extent.InBounds(p) {
		return
	}
	t.values[t.extent.Index(p)] = v
}

// IsVisited сообщает, что клетка уже поставлена в очередь или отмечена тупиком
func (t *Traversal) IsVisited(p vec.Vec2) bool {
	v := t.Get(p)
	return v > 0 || v == valueDeadEnd
}

// IsReached сообщает, что клетка достигнута и пригодна как узел пути
func (t *Traversal) IsReached(p vec.Vec2) bool {
	return t.Get(p) > 0
}

// IsDeadEnd сообщает, что клетка отмечена тупиком
func (t *Traversal) IsDeadEnd(p vec.Vec2) bool {
	return t.Get(p) == valueDeadEnd
}

// IsInvalid сообщает, что клетка лежит за краем слоя
func (t *Traversal) IsInvalid(p vec.Vec2) bool {
	return t.Get(p) == valueInvalid
}

// Order возвращает порядковый номер достижения клетки или 0
func (t *Traversal) Order(p vec.Vec2) int32 {
	return max(t.Get(p), 0)
}

// Popped возвращает количество клеток, извлечённых из очереди
func (t *Traversal) Popped() int {
	return t.popped
}

// Pending возвращает количество клеток в очереди
func (t *Traversal) Pending() int {
	return len(t.queue) - t.head
}

// enqueue отмечает клетку и ставит её в очередь, если она ещё не посещена
func (t *Traversal) enqueue(p, from vec.Vec2, accept func(vec.Vec2) bool) bool {
	if p.Y < 0 || p.Y >= t.extent.Height || p.X < -1 || p.X > t.extent.Width {
		return false
	}
	idx := t.extent.Index(p)
	if t.values[idx] != valueUnvisited {
		return false
	}
	if accept != nil && !accept(p) {
		return false
	}
	t.order++
	t.values[idx] = t.order
	t.queue = append(t.queue, entry{pos: p, from: from})
	return true
}

// passable возвращает фильтр затравок по маске проходимости
func passable(l *world.Layer, mask world.TileFlag) func(vec.Vec2) bool {
	return func(p vec.Vec2) bool {
		return !l.CheckMask(p, mask)
	}
}

// PushPos ставит в очередь одну клетку
func (t *Traversal) PushPos(p vec.Vec2) bool {
	return t.enqueue(p, p, nil)
}

// PushPosIfPassable ставит клетку в очередь, только если она проходима для маски
func (t *Traversal) PushPosIfPassable(p vec.Vec2, l *world.Layer, mask world.TileFlag) bool {
	return t.enqueue(p, p, passable(l, mask))
}

// PushNeighbor ставит в очередь непосещённых соседей клетки
func (t *Traversal) PushNeighbor(p vec.Vec2) {
	t.pushNeighbor(p, nil)
}

// PushNeighborIfPassable ставит в очередь проходимых непосещённых соседей
func (t *Traversal) PushNeighborIfPassable(p vec.Vec2, l *world.Layer, mask world.TileFlag) {
	t.pushNeighbor(p, passable(l, mask))
}

func (t *Traversal) pushNeighbor(p vec.Vec2, accept func(vec.Vec2) bool) {
	for d := vec.DirN; d <= vec.DirNW; d++ {
		t.enqueue(p.Step(d), p, accept)
	}
}

// PushUnitPosAndNeighbor ставит в очередь клетки объекта и кольцо вокруг него
func (t *Traversal) PushUnitPosAndNeighbor(pos vec.Vec2, fp physics.Footprint) {
	t.pushUnitPosAndNeighbor(pos, fp, nil)
}

// PushUnitPosAndNeighborIfPassable - то же, но только проходимые клетки
func (t *Traversal) PushUnitPosAndNeighborIfPassable(pos vec.Vec2, fp physics.Footprint, l *world.Layer, mask world.TileFlag) {
	t.pushUnitPosAndNeighbor(pos, fp, passable(l, mask))
}

func (t *Traversal) pushUnitPosAndNeighbor(pos vec.Vec2, fp physics.Footprint, accept func(vec.Vec2) bool) {
	r := fp.Rect(pos)
	t.pushRectangle(r, accept)
	t.pushRectangleBorder(r.Expand(1), accept)
}

// PushRectangle ставит в очередь все клетки прямоугольника
func (t *Traversal) PushRectangle(r vec.Rect) {
	t.pushRectangle(r, nil)
}

// PushRectangleIfPassable ставит в очередь проходимые клетки прямоугольника
func (t *Traversal) PushRectangleIfPassable(r vec.Rect, l *world.Layer, mask world.TileFlag) {
	t.pushRectangle(r, passable(l, mask))
}

func (t *Traversal) pushRectangle(r vec.Rect, accept func(vec.Vec2) bool) {
	r = r.Intersect(vec.NewRect(vec.Vec2{}, t.extent.Width, t.extent.Height))
	for y := r.Min.Y; y < r.Min.Y+r.H; y++ {
		for x := r.Min.X; x < r.Min.X+r.W; x++ {
			p := vec.Vec2{X: x, Y: y}
			t.enqueue(p, p, accept)
		}
	}
}

// PushRectangleBorder ставит в очередь клетки контура прямоугольника
func (t *Traversal) PushRectangleBorder(r vec.Rect) {
	t.pushRectangleBorder(r, nil)
}

// PushRectangleBorderIfPassable ставит в очередь проходимые клетки контура
func (t *Traversal) PushRectangleBorderIfPassable(r vec.Rect, l *world.Layer, mask world.TileFlag) {
	t.pushRectangleBorder(r, passable(l, mask))
}

func (t *Traversal) pushRectangleBorder(r vec.Rect, accept func(vec.Vec2) bool) {
	if r.Empty() {
		return
	}
	maxP := r.Max()
	push := func(p vec.Vec2) {
		if t.extent.InBounds(p) {
			t.enqueue(p, p, accept)
		}
	}
	for x := r.Min.X; x <= maxP.X; x++ {
		push(vec.Vec2{X: x, Y: r.Min.Y})
	}
	for y := r.Min.Y + 1; y <= maxP.Y; y++ {
		push(vec.Vec2{X: maxP.X, Y: y})
	}
	if maxP.Y > r.Min.Y {
		for x := maxP.X - 1; x >= r.Min.X; x-- {
			push(vec.Vec2{X: x, Y: maxP.Y})
		}
	}
	if maxP.X > r.Min.X {
		for y := maxP.Y - 1; y > r.Min.Y; y-- {
			push(vec.Vec2{X: r.Min.X, Y: y})
		}
	}
}

// Run извлекает клетки из очереди и передаёт их посетителю.
// Возвращает true, только если посетитель ответил VisitFinished.
// Можно вызывать повторно после добавления новых затравок.
func (t *Traversal) Run(v Visitor) bool {
	for t.head < len(t.queue) {
		e := t.queue[t.head]
		t.head++
		t.popped++

		if !t.IsVisited(e.pos) {
			panic(fmt.Sprintf("traverse: клетка %v извлечена из очереди без отметки посещения", e.pos))
		}

		switch v.Visit(t, e.pos, e.from) {
		case VisitFinished:
			return true
		case VisitDeadEnd:
			t.values[t.extent.Index(e.pos)] = valueDeadEnd
		case VisitOk:
			t.pushNeighbor(e.pos, nil)
		case VisitCancel:
			return false
		}
	}
	return false
}
