package physics

import (
	"testing"

	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestFootprintNormalize(t *testing.T) {
	assert.Equal(t, Footprint{Width: 1, Height: 1}, NewFootprint(0, -3), "Размер должен быть не меньше 1x1")
	assert.Equal(t, Footprint{Width: 2, Height: 3}, NewFootprint(2, 3))
}

func TestFootprintCells(t *testing.T) {
	fp := NewFootprint(2, 2)
	var cells []vec.Vec2
	fp.Cells(vec.Vec2{X: 3, Y: 4}, func(p vec.Vec2) bool {
		cells = append(cells, p)
		return true
	})

	// Порядок обхода - по строкам
	assert.Equal(t, []vec.Vec2{{X: 3, Y: 4}, {X: 4, Y: 4}, {X: 3, Y: 5}, {X: 4, Y: 5}}, cells)
}

func TestCanMoveToPosition(t *testing.T) {
	blocked := vec.Vec2{X: 5, Y: 5}
	free := func(p vec.Vec2) bool { return p != blocked }

	assert.True(t, CanMoveToPosition(vec.Vec2{X: 2, Y: 2}, NewFootprint(2, 2), free))
	assert.False(t, CanMoveToPosition(vec.Vec2{X: 4, Y: 4}, NewFootprint(2, 2), free), "Угол объекта попадает на занятую клетку")
	assert.True(t, CanMoveToPosition(vec.Vec2{X: 6, Y: 6}, Single, free))
}

func TestCollisionAndDistance(t *testing.T) {
	a := vec.Vec2{X: 0, Y: 0}
	b := vec.Vec2{X: 1, Y: 1}
	assert.True(t, CheckCollision(a, NewFootprint(2, 2), b, Single))
	assert.False(t, CheckCollision(a, Single, b, Single))

	assert.Equal(t, 0, Distance(a, NewFootprint(2, 2), b, Single))
	assert.Equal(t, 1, Distance(a, Single, b, Single))
	assert.Equal(t, 3, Distance(a, NewFootprint(2, 1), vec.Vec2{X: 4, Y: 3}, Single))
}
