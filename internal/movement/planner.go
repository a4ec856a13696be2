package movement

import (
	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// Planner решает, когда объекту нужен новый поиск, и выдаёт по одному шагу за цикл
type Planner struct {
	world         *world.World
	searcher      *pathfind.Searcher
	maxWaitCycles int
	log           *logging.Logger
}

// NewPlanner создаёт планировщик поверх мира и поисковика
func NewPlanner(w *world.World, s *pathfind.Searcher, cfg config.MovementConfig) *Planner {
	return &Planner{
		world:         w,
		searcher:      s,
		maxWaitCycles: cfg.MaxWaitCycles,
		log:           logging.Discard(),
	}
}

// SetLogger задаёт логгер компонента
func (p *Planner) SetLogger(l *logging.Logger) {
	p.log = l
}

// Searcher возвращает используемый поисковик
func (p *Planner) Searcher() *pathfind.Searcher {
	return p.searcher
}

// Next выполняет один цикл движения объекта: при необходимости ищет путь
// и возвращает шаг, который внешний исполнитель должен применить.
// DirNone означает, что в этом цикле объект стоит.
func (p *Planner) Next(m Mover, req *Request, res *Result) (vec.Direction, pathfind.Outcome) {
	pos := m.Position()
	if req.HasExpected && pos != req.Expected {
		p.log.Debug("объект %d смещён: ожидалось %v, сейчас %v", req.Unit, req.Expected, pos)
		req.Invalidate()
	}
	req.Expected, req.HasExpected = pos, true

	// Переходы между слоями делают отдельные объекты-коннекторы
	layer, err := p.world.Layer(req.Layer)
	if err != nil || m.Layer() != req.Layer {
		res.Clear()
		return p.done(res, pathfind.OutcomeUnreachable)
	}

	if req.Target().InRange(pos, req.Size) {
		req.Recalculate = false
		res.Clear()
		return p.done(res, pathfind.OutcomeReached)
	}

	if !req.Recalculate && !res.Empty() {
		return p.follow(m, layer, req, res, true)
	}

	if req.Unreachable && req.UnreachableVersion == layer.Version() {
		return p.done(res, pathfind.OutcomeUnreachable)
	}

	if d, ok := p.fastStep(m, layer, req); ok {
		req.Recalculate = false
		res.SetSingle(d)
		return p.follow(m, layer, req, res, true)
	}

	return p.plan(m, layer, req, res, true)
}

func (p *Planner) done(res *Result, outcome pathfind.Outcome) (vec.Direction, pathfind.Outcome) {
	res.Outcome = outcome
	return vec.DirNone, outcome
}

// follow выдаёт следующий сохранённый шаг, если клетка свободна.
// Маршрут через туман мог пройти по клетке, которая на деле непроходима:
// такая клетка становится разведанной, а путь строится заново не больше одного раза за цикл.
func (p *Planner) follow(m Mover, l *world.Layer, req *Request, res *Result, replan bool) (vec.Direction, pathfind.Outcome) {
	d := res.Peek()
	to := m.Position().Step(d)
	if l.FootprintBlocked(to, req.Size, m.Mask()&^world.FlagUnitPresence) {
		p.log.Debug("объект %d: клетка %v непроходима, маршрут сброшен", req.Unit, to)
		reveal(l, to, req, m.Player())
		req.Invalidate()
		res.Clear()
		if replan {
			return p.plan(m, l, req, res, false)
		}
		return p.done(res, pathfind.OutcomeWait)
	}
	if fixed, moving := p.occupied(m, l, to); fixed || moving {
		res.Cycles++
		if res.Cycles > p.maxWaitCycles {
			req.Recalculate = true
		}
		return p.done(res, pathfind.OutcomeWait)
	}

	res.Pop()
	res.Cycles = 0
	req.Expected = to
	res.Outcome = pathfind.OutcomeMoved
	return d, pathfind.OutcomeMoved
}

// plan запускает полный поиск
func (p *Planner) plan(m Mover, l *world.Layer, req *Request, res *Result, replan bool) (vec.Direction, pathfind.Outcome) {
	q := req.Query(m)
	// Застрявший объект обходит юнитов как препятствия
	stuck := res.Cycles > p.maxWaitCycles
	q.BlockOccupied = stuck

	path := p.searcher.Search(l, q)
	req.Recalculate = false

	switch path.Outcome {
	case pathfind.OutcomeMoved:
		res.Set(path.Steps())
		return p.follow(m, l, req, res, replan)

	case pathfind.OutcomeWait:
		cycles := res.Cycles
		res.Set(path.Steps())
		res.Cycles = cycles + 1
		if res.Cycles > p.maxWaitCycles {
			req.Recalculate = true
		}
		return p.done(res, pathfind.OutcomeWait)

	case pathfind.OutcomeReached:
		res.Clear()
		return p.done(res, pathfind.OutcomeReached)

	case pathfind.OutcomeFailed:
		// Прерванный поиск не доказывает недостижимость, проверяем связность обходом
		if q.Fogged(p.searcher.Settings()) || p.searcher.Connected(l, q) {
			res.Clear()
			return p.done(res, pathfind.OutcomeFailed)
		}
		p.log.Debug("объект %d: цель %v не связана со стартом", req.Unit, req.Goal)
		return p.unreachable(l, req, res)

	default:
		if stuck {
			// Недостижимость из-за юнитов не кэшируется
			res.Clear()
			return p.done(res, pathfind.OutcomeUnreachable)
		}
		return p.unreachable(l, req, res)
	}
}

func (p *Planner) unreachable(l *world.Layer, req *Request, res *Result) (vec.Direction, pathfind.Outcome) {
	req.Unreachable = true
	req.UnreachableVersion = l.Version()
	res.Clear()
	return p.done(res, pathfind.OutcomeUnreachable)
}

// fastStep ищет одиночный шаг, который сразу приводит объект в кольцо цели
func (p *Planner) fastStep(m Mover, l *world.Layer, req *Request) (vec.Direction, bool) {
	pos := m.Position()
	goal := req.Target()
	if pathfind.Heuristic(req.Size.Rect(pos), goal) != 1 {
		return vec.DirNone, false
	}

	q := req.Query(m)
	hard := m.Mask() &^ world.FlagUnitPresence
	for d := vec.DirN; d < vec.DirCount; d++ {
		to := pos.Step(d)
		if !goal.InRange(to, req.Size) || l.FootprintBlocked(to, req.Size, hard) {
			continue
		}
		if !p.searcher.StepAllowed(l, q, pos, d) {
			continue
		}
		if fixed, moving := p.occupied(m, l, to); fixed || moving {
			continue
		}
		return d, true
	}
	return vec.DirNone, false
}

// occupied сообщает, стоят ли на клетках объекта в позиции to другие юниты
func (p *Planner) occupied(m Mover, l *world.Layer, to vec.Vec2) (fixed, moving bool) {
	soft := m.Mask() & world.FlagUnitPresence
	if soft == 0 {
		return false, false
	}
	m.Footprint().Cells(to, func(c vec.Vec2) bool {
		if !l.InBounds(c) || l.Flags(c)&soft == 0 {
			return true
		}
		for _, o := range l.Tile(c).Occupants() {
			if o.ID() == m.ID() || o.Presence()&soft == 0 {
				continue
			}
			if o.Moving() {
				moving = true
			} else {
				fixed = true
			}
		}
		return true
	})
	return fixed, moving
}

// reveal отмечает клетки объекта в позиции to разведанными стороной player
func reveal(l *world.Layer, to vec.Vec2, req *Request, player int) {
	req.Size.Cells(to, func(c vec.Vec2) bool {
		l.Explore(c, player)
		return true
	})
}
