package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionTable(t *testing.T) {
	origin := Vec2{X: 5, Y: 5}
	for d := DirN; d <= DirNW; d++ {
		next := origin.Step(d)
		assert.Equal(t, 1, origin.Chebyshev(next), "Шаг %s должен быть единичным", d)
		assert.Equal(t, d, origin.DirectionTo(next))
		assert.Equal(t, origin, next.Step(d.Opposite()))
		assert.Equal(t, d, ParseDirection(d.String()))
	}

	assert.True(t, DirSE.Diagonal())
	assert.False(t, DirS.Diagonal())
	assert.Equal(t, DirNone, origin.DirectionTo(Vec2{X: 7, Y: 5}))
	assert.Equal(t, Vec2{X: 1, Y: 1}, DirSE.Vector(), "Юго-восток увеличивает обе координаты")
}

func TestRectGap(t *testing.T) {
	goal := NewRect(Vec2{X: 9, Y: 9}, 1, 1)
	assert.Equal(t, 9, NewRect(Vec2{}, 1, 1).Gap(goal))
	assert.Equal(t, 8, NewRect(Vec2{}, 2, 2).Gap(goal))
	assert.Equal(t, 0, NewRect(Vec2{X: 9, Y: 8}, 1, 2).Gap(goal))

	big := NewRect(Vec2{X: 4, Y: 4}, 3, 2)
	assert.Equal(t, 3, NewRect(Vec2{X: 1, Y: 5}, 1, 1).Gap(big))
	assert.Equal(t, Vec2{X: 4, Y: 5}, big.Nearest(Vec2{X: 1, Y: 5}))
}

func TestRectIntersectContains(t *testing.T) {
	a := NewRect(Vec2{X: 0, Y: 0}, 4, 4)
	b := NewRect(Vec2{X: 2, Y: 3}, 4, 4)
	assert.Equal(t, NewRect(Vec2{X: 2, Y: 3}, 2, 1), a.Intersect(b))
	assert.True(t, a.Intersect(NewRect(Vec2{X: 10, Y: 10}, 1, 1)).Empty())

	assert.True(t, a.Contains(Vec2{X: 3, Y: 3}))
	assert.False(t, a.Contains(Vec2{X: 4, Y: 0}))
	assert.Equal(t, NewRect(Vec2{X: -1, Y: -1}, 6, 6), a.Expand(1))
}
