package movement

import (
	"sort"

	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// Entry - состояние движения одного объекта
type Entry struct {
	Unit    Mover
	Request Request
	Result  Result
}

// Stats - итоги одного цикла
type Stats struct {
	Moved       int
	Waiting     int
	Reached     int
	Unreachable int
	Failed      int
}

type subscription struct {
	layer *world.Layer
	id    int
}

// Tracker хранит запросы и маршруты всех подвижных объектов и обновляет их
// в порядке возрастания ID, чтобы цикл был одинаков на всех участниках.
// Подписан на изменения ландшафта и сбрасывает маршруты, проходящие через них.
type Tracker struct {
	planner *Planner
	entries []*Entry // по возрастанию ID
	byID    map[uint64]*Entry
	subs    []subscription
}

// NewTracker создаёт пустой трекер
func NewTracker(p *Planner) *Tracker {
	return &Tracker{
		planner: p,
		byID:    make(map[uint64]*Entry),
	}
}

// Watch подписывает трекер на изменения слоя
func (t *Tracker) Watch(l *world.Layer) {
	id := l.Subscribe(t.onTerrain)
	t.subs = append(t.subs, subscription{layer: l, id: id})
}

// Close снимает все подписки
func (t *Tracker) Close() {
	for _, s := range t.subs {
		s.layer.Unsubscribe(s.id)
	}
	t.subs = nil
}

// Add начинает отслеживать объект. Для известного ID возвращает существующую запись.
func (t *Tracker) Add(m Mover) *Entry {
	if e, ok := t.byID[m.ID()]; ok {
		e.Unit = m
		return e
	}

	e := &Entry{Unit: m, Request: NewRequest(m)}
	e.Result.Clear()
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Unit.ID() > m.ID() })
	t.entries = append(t.entries, nil)
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
	t.byID[m.ID()] = e
	return e
}

// Remove прекращает отслеживание объекта
func (t *Tracker) Remove(id uint64) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}
	delete(t.byID, id)
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Unit.ID() >= id })
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}

// Get возвращает запись объекта
func (t *Tracker) Get(id uint64) (*Entry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

func (t *Tracker) Len() int {
	return len(t.entries)
}

// Entries возвращает записи по возрастанию ID. Срез нельзя изменять.
func (t *Tracker) Entries() []*Entry {
	return t.entries
}

// Order задаёт объекту новую цель
func (t *Tracker) Order(id uint64, goal vec.Vec2, size physics.Footprint, layer world.LayerID, minRange, maxRange int) bool {
	e, ok := t.byID[id]
	if !ok {
		return false
	}
	e.Request.SetGoal(goal, size, layer, minRange, maxRange)
	return true
}

// Tick выполняет один цикл для всех объектов. apply должен переместить объект
// на шаг d и обновить его размещение на слое. Добавлять и удалять объекты
// из apply нельзя.
func (t *Tracker) Tick(apply func(e *Entry, d vec.Direction)) Stats {
	var stats Stats
	for _, e := range t.entries {
		d, outcome := t.planner.Next(e.Unit, &e.Request, &e.Result)
		switch outcome {
		case pathfind.OutcomeMoved:
			stats.Moved++
		case pathfind.OutcomeWait:
			stats.Waiting++
		case pathfind.OutcomeReached:
			stats.Reached++
		case pathfind.OutcomeUnreachable:
			stats.Unreachable++
		case pathfind.OutcomeFailed:
			stats.Failed++
		}
		if d != vec.DirNone {
			apply(e, d)
		}
	}
	return stats
}

// onTerrain сбрасывает маршруты, оставшиеся шаги которых задевают изменённую область
func (t *Tracker) onTerrain(ev world.TerrainEvent) {
	area := ev.Area()
	for _, e := range t.entries {
		if e.Request.Layer != ev.Layer || e.Result.Empty() {
			continue
		}
		if routeCrosses(e.Unit.Position(), e.Request.Size, e.Result.Steps(), area) {
			e.Request.Invalidate()
		}
	}
}

func routeCrosses(pos vec.Vec2, size physics.Footprint, steps []vec.Direction, area vec.Rect) bool {
	for _, d := range steps {
		pos = pos.Step(d)
		if !size.Rect(pos).Intersect(area).Empty() {
			return true
		}
	}
	return false
}

// Snapshot возвращает состояние всех объектов для сохранения
func (t *Tracker) Snapshot() []State {
	states := make([]State, len(t.entries))
	for i, e := range t.entries {
		states[i] = State{Request: e.Request, Result: e.Result}
	}
	return states
}

// Restore применяет сохранённые состояния к уже добавленным объектам.
// Возвращает число восстановленных записей.
func (t *Tracker) Restore(states []State) int {
	n := 0
	for _, s := range states {
		e, ok := t.byID[s.Request.Unit]
		if !ok {
			continue
		}
		e.Request = s.Request
		e.Result = s.Result
		n++
	}
	return n
}
