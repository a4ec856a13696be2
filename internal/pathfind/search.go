package pathfind

import (
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// Searcher выполняет поиск пути A* по одному слою карты.
// Не потокобезопасен: все поиски и изменения карты идут в одном потоке симуляции.
type Searcher struct {
	settings Settings
	metrics  *Metrics
	log      *logging.Logger
}

// Option настраивает Searcher
type Option func(*Searcher)

// WithMetrics подключает prometheus-метрики
func WithMetrics(m *Metrics) Option {
	return func(s *Searcher) { s.metrics = m }
}

// WithLogger задаёт логгер компонента
func WithLogger(l *logging.Logger) Option {
	return func(s *Searcher) { s.log = l }
}

// NewSearcher создаёт поисковик с заданными параметрами
func NewSearcher(settings Settings, opts ...Option) *Searcher {
	s := &Searcher{
		settings: settings,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings возвращает текущие параметры поиска
func (s *Searcher) Settings() Settings {
	return s.settings
}

// SetSettings меняет параметры для последующих поисков
func (s *Searcher) SetSettings(settings Settings) {
	s.settings = settings
}

// Heuristic - оценка оставшейся стоимости: зазор Чебышёва между объектом
// и прямоугольником цели за вычетом максимальной дальности.
// Каждый шаг стоит не меньше 1 и меняет зазор не больше чем на 1,
// поэтому оценка допустима и монотонна.
func Heuristic(unit vec.Rect, goal traverse.Goal) int {
	return max(0, unit.Gap(goal.Rect)-goal.MaxRange)
}

// Search ищет маршрут и возвращает первые MaxPathSteps шагов.
// Ничего не меняет ни на карте, ни в объектах.
func (s *Searcher) Search(l *world.Layer, q Query) Path {
	settings := s.settings
	q = q.normalized(settings)
	goal := q.Target()

	var path Path
	path.Heuristic = Heuristic(q.Size.Rect(q.Start), goal)

	switch {
	case goal.InRange(q.Start, q.Size):
		path.Outcome = OutcomeReached
	case !l.InBounds(q.Start):
		path.Outcome = OutcomeUnreachable
	default:
		newSearch(l, q, settings, goal).run(&path)
	}

	s.metrics.observe(&path)
	if s.log.Enabled(logging.TRACE) {
		s.log.Trace("поиск %d: %v -> %v слой %d: %s, шагов %d/%d, стоимость %d, узлов %d",
			q.Self, q.Start, q.Goal, l.ID, path.Outcome, path.PrefixLen, path.Length, path.Cost, path.Expanded)
	}
	return path
}

// Connected - дешёвая проверка связности обходом в ширину.
// Используется, когда поиск сдался по границе: занятые юнитами клетки
// и туман войны не учитываются, только рельеф и здания.
func (s *Searcher) Connected(l *world.Layer, q Query) bool {
	q = q.normalized(s.settings)
	connected := traverse.Reachable(l, q.Start, q.Size, q.Target(), q.Mask&^world.FlagUnitPresence)
	s.metrics.observeFallback(connected)
	return connected
}

// StepAllowed проверяет одиночный шаг из from в направлении d по тем же
// правилам, что и поиск: рельеф, здания и срезание углов.
// В тумане войны неразведанные клетки считаются проходимыми.
// Занятость клеток юнитами не учитывается.
func (s *Searcher) StepAllowed(l *world.Layer, q Query, from vec.Vec2, d vec.Direction) bool {
	if !d.Valid() {
		return false
	}
	q = q.normalized(s.settings)
	sr := &search{
		layer: l,
		q:     q,
		set:   s.settings,
		hard:  q.Mask &^ world.FlagUnitPresence,
		fog:   q.Fogged(s.settings),
	}
	return !sr.cutsCorner(from, d) && !sr.blocked(from.Step(d))
}

// search - состояние одного вызова Search. Сетки размером со слой
// создаются на каждый вызов и не переживают его.
type search struct {
	layer  *world.Layer
	q      Query
	set    Settings
	goal   traverse.Goal
	extent traverse.Extent
	hard   world.TileFlag
	soft   world.TileFlag
	fog    bool

	g      []int32 // -1 - клетка ещё не встречалась
	parent []vec.Direction
	closed []bool
	open   *frontier
}

func newSearch(l *world.Layer, q Query, set Settings, goal traverse.Goal) *search {
	extent := traverse.NewExtent(l.Width, l.Height)
	cells := extent.Size()
	sr := &search{
		layer:  l,
		q:      q,
		set:    set,
		goal:   goal,
		extent: extent,
		hard:   q.Mask &^ world.FlagUnitPresence,
		soft:   q.Mask & world.FlagUnitPresence,
		fog:    q.Fogged(set),
		g:      make([]int32, cells),
		parent: make([]vec.Direction, cells),
		closed: make([]bool, cells),
		open:   newFrontier(cells),
	}
	for i := range sr.g {
		sr.g[i] = -1
	}
	return sr
}

func (sr *search) run(path *Path) {
	start := int32(sr.extent.Index(sr.q.Start))
	h0 := int32(path.Heuristic)
	sr.g[start] = 0
	sr.parent[start] = vec.DirNone
	sr.open.set(openNode{cell: start, f: h0, h: h0})

	for sr.open.Len() > 0 {
		cur := sr.open.next()
		if int(cur.f) > sr.q.MaxLength {
			path.Outcome = OutcomeFailed
			return
		}
		sr.closed[cur.cell] = true

		pos := sr.extent.Position(int(cur.cell))
		if sr.goal.InRange(pos, sr.q.Size) {
			sr.build(cur.cell, start, path)
			return
		}

		if sr.set.MaxExpansions > 0 && path.Expanded >= sr.set.MaxExpansions {
			path.Outcome = OutcomeFailed
			return
		}
		path.Expanded++
		sr.expand(cur.cell, pos)
	}
	path.Outcome = OutcomeUnreachable
}

// expand раскрывает соседей в фиксированном порядке N, NE, E, ... NW
func (sr *search) expand(cell int32, pos vec.Vec2) {
	base := sr.g[cell]
	for d := vec.DirN; d < vec.DirCount; d++ {
		next := pos.Step(d)
		if !sr.fits(next) {
			continue
		}
		ni := int32(sr.extent.Index(next))
		if sr.closed[ni] {
			continue
		}
		cost := sr.stepCost(pos, next, d)
		if cost < 0 {
			continue
		}
		ng := base + int32(cost)
		if old := sr.g[ni]; old >= 0 && ng >= old {
			continue
		}
		sr.g[ni] = ng
		sr.parent[ni] = d
		h := int32(Heuristic(sr.q.Size.Rect(next), sr.goal))
		sr.open.set(openNode{cell: ni, f: ng + h, h: h})
	}
}

// fits проверяет, что объект целиком помещается на слое
func (sr *search) fits(p vec.Vec2) bool {
	return p.X >= 0 && p.Y >= 0 &&
		p.X+sr.q.Size.Width <= sr.layer.Width &&
		p.Y+sr.q.Size.Height <= sr.layer.Height
}

func (sr *search) unknown(t *world.Tile) bool {
	return sr.fog && !t.IsExplored(sr.q.Player)
}

// blocked проверяет позицию только по рельефу и зданиям
func (sr *search) blocked(p vec.Vec2) bool {
	if !sr.fits(p) {
		return true
	}
	return !sr.q.Size.Cells(p, func(c vec.Vec2) bool {
		t := sr.layer.Tile(c)
		return sr.unknown(t) || !t.CheckMask(sr.hard)
	})
}

// occupants сообщает, есть ли на клетке чужие стоящие и движущиеся объекты
func (sr *search) occupants(t *world.Tile) (fixed, moving bool) {
	for _, o := range t.Occupants() {
		if o.ID() == sr.q.Self || o.Presence()&sr.soft == 0 {
			continue
		}
		if o.Moving() {
			moving = true
		} else {
			fixed = true
		}
	}
	return fixed, moving
}

// cutsCorner проверяет, срезает ли диагональный шаг угол между двумя
// заблокированными соседними позициями
func (sr *search) cutsCorner(from vec.Vec2, d vec.Direction) bool {
	if !d.Diagonal() || sr.set.AllowCornerCutting {
		return false
	}
	v := d.Vector()
	return sr.blocked(vec.Vec2{X: from.X + v.X, Y: from.Y}) && sr.blocked(vec.Vec2{X: from.X, Y: from.Y + v.Y})
}

// stepCost возвращает стоимость шага в позицию to или -1, если шаг невозможен.
// Стоимость - максимум по клеткам объекта в новой позиции плюс надбавки.
func (sr *search) stepCost(from, to vec.Vec2, d vec.Direction) int {
	if sr.cutsCorner(from, d) {
		return -1
	}

	cost := 0
	var unknown, fixed, moving bool
	ok := sr.q.Size.Cells(to, func(c vec.Vec2) bool {
		t := sr.layer.Tile(c)
		if sr.unknown(t) {
			unknown = true
			return true
		}
		if t.CheckMask(sr.hard) {
			return false
		}
		if t.Flags&sr.soft != 0 {
			f, m := sr.occupants(t)
			if (f || m) && sr.q.BlockOccupied {
				return false
			}
			fixed = fixed || f
			moving = moving || m
		}
		cost = max(cost, t.Cost())
		return true
	})
	if !ok {
		return -1
	}

	if unknown {
		cost = max(cost, 1) + sr.set.UnknownTerrainCost
	}
	switch {
	case fixed:
		cost += sr.set.FixedUnitCrossingCost
	case moving:
		cost += sr.set.MovingUnitCrossingCost
	}
	return cost
}

func (sr *search) back(cell int32) int32 {
	p := sr.extent.Position(int(cell)).Step(sr.parent[cell].Opposite())
	return int32(sr.extent.Index(p))
}

// build восстанавливает маршрут по родителям и сохраняет только его начало
func (sr *search) build(goal, start int32, path *Path) {
	n := 0
	for c := goal; c != start; c = sr.back(c) {
		n++
	}
	path.Length = n
	path.Cost = int(sr.g[goal])
	path.PrefixLen = min(n, MaxPathSteps)

	i := n
	for c := goal; c != start; c = sr.back(c) {
		i--
		if i < MaxPathSteps {
			path.Prefix[i] = sr.parent[c]
		}
	}

	path.Outcome = OutcomeMoved
	if n > 0 && sr.firstStepWaits(path.Prefix[0]) {
		path.Outcome = OutcomeWait
	}
}

// firstStepWaits проверяет, не занята ли клетка первого шага движущимся объектом
func (sr *search) firstStepWaits(d vec.Direction) bool {
	to := sr.q.Start.Step(d)
	return !sr.q.Size.Cells(to, func(c vec.Vec2) bool {
		t := sr.layer.Tile(c)
		if sr.unknown(t) || t.Flags&sr.soft == 0 {
			return true
		}
		_, moving := sr.occupants(t)
		return !moving
	})
}
