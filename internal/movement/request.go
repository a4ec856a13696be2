package movement

import (
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// Mover - подвижный объект, которым управляет планировщик.
// Планировщик только читает его состояние.
type Mover interface {
	world.Occupant
	Player() int          // Сторона для тумана войны, -1 - видит всё
	Mask() world.TileFlag // Маска проходимости для вида передвижения
}

// Request - цель движения одного объекта
type Request struct {
	Unit     uint64
	Size     physics.Footprint
	Goal     vec.Vec2
	GoalSize physics.Footprint
	Layer    world.LayerID
	MinRange int
	MaxRange int
	// Нужен новый поиск
	Recalculate bool

	// Где объект должен стоять после последнего выданного шага
	Expected    vec.Vec2
	HasExpected bool

	// Цель признана недостижимой при версии связности UnreachableVersion
	Unreachable        bool
	UnreachableVersion uint64
}

// NewRequest создаёт запрос для объекта без цели
func NewRequest(m Mover) Request {
	return Request{
		Unit:     m.ID(),
		Size:     m.Footprint().Normalize(),
		Goal:     m.Position(),
		GoalSize: physics.Single,
		Layer:    m.Layer(),
	}
}

// SetGoal задаёт новую цель. Пересчёт нужен, только если цель или слой
// действительно изменились; тогда возвращается true.
func (r *Request) SetGoal(goal vec.Vec2, size physics.Footprint, layer world.LayerID, minRange, maxRange int) bool {
	size = size.Normalize()
	maxRange = max(maxRange, minRange)
	if r.Goal == goal && r.GoalSize == size && r.Layer == layer &&
		r.MinRange == minRange && r.MaxRange == maxRange {
		return false
	}

	r.Goal = goal
	r.GoalSize = size
	r.Layer = layer
	r.MinRange = minRange
	r.MaxRange = maxRange
	r.Invalidate()
	return true
}

// Invalidate помечает сохранённый маршрут устаревшим
func (r *Request) Invalidate() {
	r.Recalculate = true
	r.Unreachable = false
	r.UnreachableVersion = 0
}

// Target возвращает целевую область
func (r *Request) Target() traverse.Goal {
	return traverse.Goal{
		Rect:     r.GoalSize.Rect(r.Goal),
		MinRange: r.MinRange,
		MaxRange: max(r.MaxRange, r.MinRange),
	}
}

// Query собирает запрос поиска из текущего положения объекта
func (r *Request) Query(m Mover) pathfind.Query {
	return pathfind.Query{
		Self:     m.ID(),
		Player:   m.Player(),
		Start:    m.Position(),
		Size:     r.Size,
		Goal:     r.Goal,
		GoalSize: r.GoalSize,
		MinRange: r.MinRange,
		MaxRange: r.MaxRange,
		Mask:     m.Mask(),
	}
}
