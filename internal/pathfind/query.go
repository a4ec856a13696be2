package pathfind

import (
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// MaxPathSteps - сколько первых шагов маршрута возвращает поиск
const MaxPathSteps = 28

// Outcome - итог поиска
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	// Объект уже в кольце дальности цели
	OutcomeReached
	// Фронтир исчерпан: цель не связана со стартом на этом слое
	OutcomeUnreachable
	// Поиск прерван границей длины или числа узлов. Недостижимость не доказана.
	OutcomeFailed
	// Первый шаг ведёт в клетку движущегося объекта, стоит подождать
	OutcomeWait
	// Найден маршрут, есть хотя бы один шаг
	OutcomeMoved
)

var outcomeNames = [...]string{"none", "reached", "unreachable", "failed", "wait", "moved"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Success сообщает, что объект либо на месте, либо получил шаги
func (o Outcome) Success() bool {
	return o == OutcomeReached || o == OutcomeMoved
}

// Query описывает один поиск пути
type Query struct {
	// ID ищущего объекта: его собственные клетки не считаются занятыми
	Self uint64
	// Сторона для тумана войны; отрицательное значение - карта известна полностью
	Player int

	Start    vec.Vec2
	Size     physics.Footprint
	Goal     vec.Vec2
	GoalSize physics.Footprint
	MinRange int
	MaxRange int

	// Граница стоимости; 0 - из настроек
	MaxLength int
	// Маска блокировки. Биты присутствия юнитов дают надбавку, а не блокировку,
	// если не выставлен BlockOccupied.
	Mask          world.TileFlag
	BlockOccupied bool
}

func (q Query) normalized(s Settings) Query {
	q.Size = q.Size.Normalize()
	q.GoalSize = q.GoalSize.Normalize()
	if q.MinRange < 0 {
		q.MinRange = 0
	}
	if q.MaxRange < q.MinRange {
		q.MaxRange = q.MinRange
	}
	if q.MaxLength <= 0 {
		q.MaxLength = s.MaxSearchLength
	}
	return q
}

// Target возвращает целевую область запроса
func (q Query) Target() traverse.Goal {
	return traverse.Goal{
		Rect:     q.GoalSize.Normalize().Rect(q.Goal),
		MinRange: q.MinRange,
		MaxRange: max(q.MaxRange, q.MinRange),
	}
}

// Fogged сообщает, действует ли для запроса туман войны
func (q Query) Fogged(s Settings) bool {
	return !s.AssumeUnseenKnown && q.Player >= 0 && q.Player < world.MaxPlayers
}

// Path - результат поиска: итог и первые шаги маршрута
type Path struct {
	Outcome Outcome
	// Первые шаги маршрута, не больше MaxPathSteps
	Prefix    [MaxPathSteps]vec.Direction
	PrefixLen int
	// Полная длина найденного маршрута в шагах
	Length int
	// Стоимость найденного маршрута
	Cost int
	// Эвристика в стартовой позиции
	Heuristic int
	Expanded  int
}

// Steps возвращает первые шаги маршрута
func (p *Path) Steps() []vec.Direction {
	return p.Prefix[:p.PrefixLen]
}
