package movement

import (
	"testing"

	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/stretchr/testify/assert"
)

func TestRequestSetGoal(t *testing.T) {
	u := newUnit(7, vec.Vec2{X: 2, Y: 3})
	u.fp = physics.NewFootprint(2, 2)
	req := NewRequest(u)

	assert.Equal(t, uint64(7), req.Unit)
	assert.Equal(t, physics.NewFootprint(2, 2), req.Size)
	assert.False(t, req.Recalculate)

	assert.True(t, req.SetGoal(vec.Vec2{X: 9, Y: 9}, physics.Single, world.LayerSurface, 0, 2))
	assert.True(t, req.Recalculate, "Новая цель требует пересчёта")

	req.Recalculate = false
	assert.False(t, req.SetGoal(vec.Vec2{X: 9, Y: 9}, physics.Footprint{}, world.LayerSurface, 0, 2),
		"Та же цель не меняет запрос")
	assert.False(t, req.Recalculate)

	assert.True(t, req.SetGoal(vec.Vec2{X: 9, Y: 9}, physics.Single, world.LayerUnderground, 0, 2),
		"Смена слоя - это новая цель")
	assert.True(t, req.Recalculate)
}

func TestRequestInvalidateClearsUnreachable(t *testing.T) {
	req := NewRequest(newUnit(1, vec.Vec2{}))
	req.Unreachable = true
	req.UnreachableVersion = 12

	req.Invalidate()
	assert.True(t, req.Recalculate)
	assert.False(t, req.Unreachable)
	assert.Zero(t, req.UnreachableVersion)
}

func TestRequestQuery(t *testing.T) {
	u := newUnit(3, vec.Vec2{X: 4, Y: 5})
	u.player = 2
	req := NewRequest(u)
	req.SetGoal(vec.Vec2{X: 10, Y: 1}, physics.NewFootprint(3, 2), world.LayerSurface, 1, 4)

	q := req.Query(u)
	assert.Equal(t, pathfind.Query{
		Self:     3,
		Player:   2,
		Start:    vec.Vec2{X: 4, Y: 5},
		Size:     physics.Single,
		Goal:     vec.Vec2{X: 10, Y: 1},
		GoalSize: physics.NewFootprint(3, 2),
		MinRange: 1,
		MaxRange: 4,
		Mask:     world.MaskLandUnit,
	}, q)

	goal := req.Target()
	assert.Equal(t, vec.NewRect(vec.Vec2{X: 10, Y: 1}, 3, 2), goal.Rect)
	assert.Equal(t, 4, goal.MaxRange)
}

func TestResultBuffer(t *testing.T) {
	var res Result
	res.Clear()
	assert.True(t, res.Empty())
	assert.Equal(t, vec.DirNone, res.Peek())
	assert.Equal(t, vec.DirNone, res.Pop())

	res.Set([]vec.Direction{vec.DirE, vec.DirSE, vec.DirS})
	res.Cycles = 4
	assert.Equal(t, 3, res.Len())
	assert.Equal(t, vec.DirE, res.Peek())
	assert.Equal(t, vec.DirE, res.Pop())
	assert.Equal(t, []vec.Direction{vec.DirSE, vec.DirS}, res.Steps())

	res.SetSingle(vec.DirW)
	assert.True(t, res.Fast)
	assert.Zero(t, res.Cycles)
	assert.Equal(t, []vec.Direction{vec.DirW}, res.Steps())

	long := make([]vec.Direction, 40)
	for i := range long {
		long[i] = vec.DirN
	}
	res.Set(long)
	assert.Equal(t, pathfind.MaxPathSteps, res.Len(), "Лишние шаги отбрасываются")
	assert.False(t, res.Fast)
}
