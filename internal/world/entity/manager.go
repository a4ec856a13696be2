package entity

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// SpawnSearchRadius - насколько далеко от запрошенной точки ищется свободное место
const SpawnSearchRadius = 16

// SightRadius - на сколько клеток вокруг себя объект разведывает карту
const SightRadius = 2

// ErrNoPlacement возвращается, если рядом с точкой нет места для объекта
var ErrNoPlacement = errors.New("entity: нет места для размещения")

// Manager управляет объектами мира: создаёт, размещает на слоях и перемещает их
type Manager struct {
	world  *world.World
	units  map[uint64]*Unit // Хранилище всех объектов
	nextID uint64           // Счетчик для генерации ID
	mu     sync.RWMutex
}

// NewManager создаёт менеджер объектов для мира
func NewManager(w *world.World) *Manager {
	return &Manager{
		world:  w,
		units:  make(map[uint64]*Unit),
		nextID: 1,
	}
}

// Spawn создаёт объект и ставит его на ближайшую к pos свободную позицию
func (m *Manager) Spawn(kind Kind, layer world.LayerID, pos vec.Vec2, size physics.Footprint, player int) (*Unit, error) {
	l, err := m.world.Layer(layer)
	if err != nil {
		return nil, err
	}

	size = size.Normalize()
	at, ok := traverse.FindPlacement(l, pos, size, kind.Mask()|world.FlagPresence, SpawnSearchRadius)
	if !ok {
		return nil, fmt.Errorf("%w: %s %dx%d у (%d,%d)", ErrNoPlacement, kind, size.Width, size.Height, pos.X, pos.Y)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u := &Unit{
		id:     m.nextID,
		kind:   kind,
		pos:    at,
		size:   size,
		layer:  layer,
		player: player,
	}
	m.nextID++
	m.units[u.id] = u
	l.Insert(u)
	reveal(l, u)
	return u, nil
}

// Despawn убирает объект с карты
func (m *Manager) Despawn(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.units[id]
	if !ok {
		return false
	}
	if l, err := m.world.Layer(u.layer); err == nil {
		l.Remove(u)
	}
	delete(m.units, id)
	return true
}

// Get возвращает объект по ID
func (m *Manager) Get(id uint64) (*Unit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.units[id]
	return u, ok
}

// Units возвращает все объекты по возрастанию ID
func (m *Manager) Units() []*Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	units := make([]*Unit, 0, len(m.units))
	for _, u := range m.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].id < units[j].id })
	return units
}

// Step сдвигает объект на одну клетку и обновляет его размещение.
// Здания и шаг за край слоя игнорируются.
func (m *Manager) Step(u *Unit, d vec.Direction) bool {
	if u.kind == KindBuilding || !d.Valid() {
		return false
	}
	l, err := m.world.Layer(u.layer)
	if err != nil {
		return false
	}
	to := u.pos.Step(d)
	if !l.InBounds(to) || !l.InBounds(to.Add(vec.Vec2{X: u.size.Width - 1, Y: u.size.Height - 1})) {
		return false
	}

	m.mu.Lock()
	u.pos = to
	u.moving = true
	m.mu.Unlock()

	l.Update(u)
	reveal(l, u)
	return true
}

// reveal отмечает разведанными клетки в радиусе обзора объекта
func reveal(l *world.Layer, u *Unit) {
	if u.player < 0 {
		return
	}
	for y := u.pos.Y - SightRadius; y < u.pos.Y+u.size.Height+SightRadius; y++ {
		for x := u.pos.X - SightRadius; x < u.pos.X+u.size.Width+SightRadius; x++ {
			l.Explore(vec.Vec2{X: x, Y: y}, u.player)
		}
	}
}

// Settle отмечает объекты, не получившие шага, как стоящие
func (m *Manager) Settle(moved map[uint64]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.units {
		u.moving = moved[id]
	}
}
