package movement

import (
	"testing"

	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// testUnit - подвижный объект для тестов
type testUnit struct {
	id       uint64
	pos      vec.Vec2
	fp       physics.Footprint
	layer    world.LayerID
	moving   bool
	player   int
	mask     world.TileFlag
	presence world.TileFlag
}

func newUnit(id uint64, pos vec.Vec2) *testUnit {
	return &testUnit{
		id:       id,
		pos:      pos,
		fp:       physics.Single,
		moving:   true,
		player:   -1,
		mask:     world.MaskLandUnit,
		presence: world.FlagLandUnit,
	}
}

func (u *testUnit) ID() uint64                   { return u.id }
func (u *testUnit) Position() vec.Vec2           { return u.pos }
func (u *testUnit) Footprint() physics.Footprint { return u.fp }
func (u *testUnit) Layer() world.LayerID         { return u.layer }
func (u *testUnit) Presence() world.TileFlag     { return u.presence }
func (u *testUnit) Moving() bool                 { return u.moving }
func (u *testUnit) Player() int                  { return u.player }
func (u *testUnit) Mask() world.TileFlag         { return u.mask }

// fixture - мир с одним слоем и планировщиком
type fixture struct {
	world   *world.World
	layer   *world.Layer
	reg     *prometheus.Registry
	planner *Planner
}

func newFixture(t *testing.T, width, height int, settings pathfind.Settings, maxWait int) *fixture {
	w := world.NewWorld()
	l, err := w.AddLayer(width, height)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	s := pathfind.NewSearcher(settings, pathfind.WithMetrics(pathfind.NewMetrics(reg)))
	return &fixture{
		world:   w,
		layer:   l,
		reg:     reg,
		planner: NewPlanner(w, s, config.MovementConfig{MaxWaitCycles: maxWait}),
	}
}

// move применяет шаг к объекту и обновляет его размещение
func (f *fixture) move(u *testUnit, d vec.Direction) {
	u.pos = u.pos.Step(d)
	f.layer.Update(u)
}

// searches возвращает число выполненных поисков по метрикам
func (f *fixture) searches(t *testing.T) float64 {
	families, err := f.reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != "pathfind_searches_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
