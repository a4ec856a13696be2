package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/rts-pathing/internal/cache"
	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/eventbus"
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/annel0/rts-pathing/internal/movement"
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/storage"
	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/annel0/rts-pathing/internal/world/entity"
	"github.com/google/uuid"
)

// EventSource - имя источника событий симуляции
const EventSource = "navserver"

var (
	// ErrUnknownUnit возвращается для несуществующего объекта
	ErrUnknownUnit = errors.New("app: неизвестный объект")
	// ErrNoStore возвращается, если хранилище сохранений не подключено
	ErrNoStore = errors.New("app: хранилище сохранений не подключено")
)

// Simulation объединяет мир, объекты и планировщик движения.
// Все операции выполняются под одной блокировкой: ядро поиска однопоточное.
type Simulation struct {
	mu       sync.Mutex
	world    *world.World
	units    *entity.Manager
	searcher *pathfind.Searcher
	planner  *movement.Planner
	tracker  *movement.Tracker
	store    *storage.MovementStore
	regions  *cache.RegionCache
	bus      eventbus.EventBus
	ticks    uint64
	subs     []layerSub
	log      *logging.Logger
}

type layerSub struct {
	layer *world.Layer
	id    int
}

// Options - необязательные зависимости симуляции
type Options struct {
	Store   *storage.MovementStore // nil - сохранения недоступны
	Regions *cache.RegionCache     // nil - сводки областей не кешируются
	Bus     eventbus.EventBus      // nil - события не публикуются
	Logger  *logging.Logger
}

// NewSimulation создаёт симуляцию поверх готового мира
func NewSimulation(w *world.World, searcher *pathfind.Searcher, cfg config.MovementConfig, opts Options) *Simulation {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	planner := movement.NewPlanner(w, searcher, cfg)
	planner.SetLogger(log)

	s := &Simulation{
		world:    w,
		units:    entity.NewManager(w),
		searcher: searcher,
		planner:  planner,
		tracker:  movement.NewTracker(planner),
		store:    opts.Store,
		regions:  opts.Regions,
		bus:      opts.Bus,
		log:      log,
	}
	for _, l := range w.Layers() {
		s.tracker.Watch(l)
		id := l.Subscribe(s.onTerrain)
		s.subs = append(s.subs, layerSub{layer: l, id: id})
	}
	return s
}

// Close снимает подписки с слоёв
func (s *Simulation) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.Close()
	for _, sub := range s.subs {
		sub.layer.Unsubscribe(sub.id)
	}
	s.subs = nil
}

func (s *Simulation) publish(eventType string, priority int, payload interface{}) {
	if s.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(EventSource, eventType, priority, payload)
	if err == nil {
		err = s.bus.Publish(context.Background(), ev)
	}
	if err != nil {
		s.log.Warn("Не удалось опубликовать %s: %v", eventType, err)
	}
}

func (s *Simulation) onTerrain(ev world.TerrainEvent) {
	s.publish(eventbus.TypeTerrainChanged, 3, eventbus.TerrainChanged{
		Kind:     ev.GetType().String(),
		Layer:    uint8(ev.Layer),
		X:        ev.Position.X,
		Y:        ev.Position.Y,
		Width:    ev.Size.Width,
		Height:   ev.Size.Height,
		OldFlags: uint64(ev.OldFlags),
		NewFlags: uint64(ev.NewFlags),
		Version:  ev.Version,
	})
}

// Ticks возвращает число выполненных циклов
func (s *Simulation) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Tick выполняет один цикл движения всех объектов
func (s *Simulation) Tick() movement.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := make(map[uint64]bool)
	stats := s.tracker.Tick(func(e *movement.Entry, d vec.Direction) {
		u, ok := e.Unit.(*entity.Unit)
		if ok && s.units.Step(u, d) {
			moved[u.ID()] = true
		}
	})
	s.units.Settle(moved)
	s.ticks++

	s.log.Trace("Цикл %d: moved=%d wait=%d reached=%d", s.ticks, stats.Moved, stats.Waiting, stats.Reached)
	s.publish(eventbus.TypeTickCompleted, 1, eventbus.TickCompleted{
		Tick:        s.ticks,
		Moved:       stats.Moved,
		Waiting:     stats.Waiting,
		Reached:     stats.Reached,
		Unreachable: stats.Unreachable,
		Failed:      stats.Failed,
	})
	return stats
}

// Spawn создаёт объект. Подвижные объекты сразу попадают под управление планировщика.
func (s *Simulation) Spawn(kind entity.Kind, layer world.LayerID, pos vec.Vec2, size physics.Footprint, player int) (UnitView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.units.Spawn(kind, layer, pos, size, player)
	if err != nil {
		return UnitView{}, err
	}
	if kind != entity.KindBuilding {
		s.tracker.Add(u)
	}
	return s.view(u), nil
}

// Despawn убирает объект
func (s *Simulation) Despawn(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.Remove(id)
	return s.units.Despawn(id)
}

// Order задаёт объекту цель
func (s *Simulation) Order(id uint64, goal vec.Vec2, size physics.Footprint, layer world.LayerID, minRange, maxRange int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracker.Order(id, goal, size, layer, minRange, maxRange) {
		return fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	s.publish(eventbus.TypeUnitOrdered, 2, eventbus.UnitOrdered{
		Unit:     id,
		Layer:    uint8(layer),
		GoalX:    goal.X,
		GoalY:    goal.Y,
		MinRange: minRange,
		MaxRange: maxRange,
	})
	return nil
}

// Unit возвращает состояние объекта
func (s *Simulation) Unit(id uint64) (UnitView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units.Get(id)
	if !ok {
		return UnitView{}, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	return s.view(u), nil
}

// Units возвращает состояние всех объектов по возрастанию ID
func (s *Simulation) Units() []UnitView {
	s.mu.Lock()
	defer s.mu.Unlock()

	units := s.units.Units()
	views := make([]UnitView, len(units))
	for i, u := range units {
		views[i] = s.view(u)
	}
	return views
}

func (s *Simulation) layer(id world.LayerID) (*world.Layer, error) {
	return s.world.Layer(id)
}

// Search выполняет разовый поиск пути без изменения состояния объектов
func (s *Simulation) Search(layer world.LayerID, q pathfind.Query) (pathfind.Path, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return pathfind.Path{}, err
	}
	return s.searcher.Search(l, q), nil
}

// Connected проверяет связность обходом в ширину
func (s *Simulation) Connected(layer world.LayerID, q pathfind.Query) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return false, err
	}
	return s.searcher.Connected(l, q), nil
}

// Regions размечает связные области слоя для маски
func (s *Simulation) Regions(layer world.LayerID, mask world.TileFlag) (*traverse.RegionMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	return traverse.LabelRegions(l, mask), nil
}

// RegionSummary возвращает число и размеры связных областей слоя.
// Сводка кешируется по версии связности слоя.
func (s *Simulation) RegionSummary(ctx context.Context, layer world.LayerID, mask world.TileFlag) (cache.RegionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return cache.RegionSummary{}, err
	}

	version := l.Version()
	if s.regions != nil {
		summary, err := s.regions.Get(ctx, layer, version, mask)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("Кеш областей недоступен: %v", err)
		}
	}

	summary := cache.Summarize(traverse.LabelRegions(l, mask))
	if s.regions != nil {
		if err := s.regions.Put(ctx, layer, version, mask, summary); err != nil {
			s.log.Warn("Не удалось сохранить сводку областей: %v", err)
		}
	}
	return summary, nil
}

// Nearest ищет ближайшую к start клетку, где выставлены все биты want
func (s *Simulation) Nearest(layer world.LayerID, start vec.Vec2, mask, want world.TileFlag, maxDist int) (vec.Vec2, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return vec.Vec2{}, false, err
	}
	pos, ok := traverse.FindNearest(l, start, mask, maxDist, func(p vec.Vec2) bool {
		return l.Flags(p).Has(want)
	})
	return pos, ok, nil
}

// Placement ищет ближайшую к near позицию, где помещается объект
func (s *Simulation) Placement(layer world.LayerID, near vec.Vec2, size physics.Footprint, mask world.TileFlag, maxDist int) (vec.Vec2, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return vec.Vec2{}, false, err
	}
	pos, ok := traverse.FindPlacement(l, near, size, mask, maxDist)
	return pos, ok, nil
}

// EditTerrain выставляет и снимает биты ландшафта в прямоугольнике.
// Возвращает версию связности слоя после изменения.
func (s *Simulation) EditTerrain(layer world.LayerID, area vec.Rect, set, clear world.TileFlag) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return 0, err
	}
	area = area.Intersect(vec.NewRect(vec.Vec2{}, l.Width, l.Height))
	for y := area.Min.Y; y < area.Min.Y+area.H; y++ {
		for x := area.Min.X; x < area.Min.X+area.W; x++ {
			p := vec.Vec2{X: x, Y: y}
			if clear != 0 {
				l.ClearTerrain(p, clear)
			}
			if set != 0 {
				l.SetTerrain(p, set)
			}
		}
	}
	return l.Version(), nil
}

// Tile возвращает флаги клетки и стоимость входа в неё
func (s *Simulation) Tile(layer world.LayerID, p vec.Vec2) (TileView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layer)
	if err != nil {
		return TileView{}, err
	}
	if !l.InBounds(p) {
		return TileView{}, fmt.Errorf("клетка (%d,%d) вне слоя %d", p.X, p.Y, layer)
	}
	t := l.Tile(p)
	view := TileView{
		Flags:      uint64(t.Flags),
		SpeedClass: t.Flags.SpeedClass(),
		Cost:       t.Cost(),
		Explored:   t.Explored,
	}
	for _, o := range t.Occupants() {
		view.Occupants = append(view.Occupants, o.ID())
	}
	return view, nil
}

// Layers возвращает описание слоёв мира
func (s *Simulation) Layers() []LayerView {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers := s.world.Layers()
	views := make([]LayerView, len(layers))
	for i, l := range layers {
		views[i] = LayerView{ID: uint8(l.ID), Width: l.Width, Height: l.Height, Version: l.Version()}
	}
	return views
}

// Settings возвращает текущие настройки поиска
func (s *Simulation) Settings() pathfind.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searcher.Settings()
}

// SetSettings меняет настройки поиска для следующих поисков
func (s *Simulation) SetSettings(settings pathfind.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searcher.SetSettings(settings)
}

// Save сохраняет состояние движения всех объектов
func (s *Simulation) Save(ctx context.Context) (uuid.UUID, int, error) {
	if s.store == nil {
		return uuid.Nil, 0, ErrNoStore
	}

	s.mu.Lock()
	states := s.tracker.Snapshot()
	s.mu.Unlock()

	id, err := s.store.Save(ctx, states)
	if err != nil {
		return uuid.Nil, 0, err
	}
	s.publish(eventbus.TypeSaveCreated, 5, eventbus.SaveEvent{SaveID: id.String(), Units: len(states)})
	return id, len(states), nil
}

// Load восстанавливает состояние движения из сохранения.
// Записи объектов, которых нет в симуляции, пропускаются.
func (s *Simulation) Load(ctx context.Context, id uuid.UUID) (int, error) {
	if s.store == nil {
		return 0, ErrNoStore
	}

	states, err := s.store.Load(ctx, id)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	restored := s.tracker.Restore(states)
	s.mu.Unlock()

	s.log.Info("Загружено сохранение %s: %d из %d записей", id, restored, len(states))
	s.publish(eventbus.TypeSaveLoaded, 5, eventbus.SaveEvent{SaveID: id.String(), Units: restored})
	return restored, nil
}

// Saves возвращает список сохранений
func (s *Simulation) Saves(ctx context.Context) ([]storage.SaveInfo, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx)
}

// DeleteSave удаляет сохранение
func (s *Simulation) DeleteSave(ctx context.Context, id uuid.UUID) error {
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.Delete(ctx, id)
}
