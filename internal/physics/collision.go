package physics

import (
	"github.com/annel0/rts-pathing/internal/vec"
)

// Footprint - размер объекта в клетках. Позиция объекта - его левая верхняя клетка.
type Footprint struct {
	Width  int // Ширина в клетках
	Height int // Высота в клетках
}

// Single - объект размером в одну клетку
var Single = Footprint{Width: 1, Height: 1}

// NewFootprint создаёт footprint, приводя размеры к минимуму 1x1
func NewFootprint(width, height int) Footprint {
	return Footprint{
		Width:  max(width, 1),
		Height: max(height, 1),
	}
}

// Normalize возвращает footprint не меньше 1x1
func (f Footprint) Normalize() Footprint {
	return NewFootprint(f.Width, f.Height)
}

// Rect возвращает прямоугольник, занимаемый объектом в позиции pos
func (f Footprint) Rect(pos vec.Vec2) vec.Rect {
	f = f.Normalize()
	return vec.NewRect(pos, f.Width, f.Height)
}

// IsPointInside проверяет, накрывает ли объект в позиции pos указанную клетку
func (f Footprint) IsPointInside(pos, point vec.Vec2) bool {
	return f.Rect(pos).Contains(point)
}

// CheckCollision проверяет пересечение двух объектов
func CheckCollision(pos1 vec.Vec2, f1 Footprint, pos2 vec.Vec2, f2 Footprint) bool {
	r1 := f1.Rect(pos1)
	r2 := f2.Rect(pos2)
	return !r1.Intersect(r2).Empty()
}

// Cells вызывает fn для каждой клетки объекта в позиции pos в порядке строк.
// Если fn вернёт false, обход прекращается и Cells возвращает false.
func (f Footprint) Cells(pos vec.Vec2, fn func(vec.Vec2) bool) bool {
	f = f.Normalize()
	for dy := 0; dy < f.Height; dy++ {
		for dx := 0; dx < f.Width; dx++ {
			if !fn(vec.Vec2{X: pos.X + dx, Y: pos.Y + dy}) {
				return false
			}
		}
	}
	return true
}

// CanMoveToPosition проверяет, может ли объект встать в позицию newPos.
// cellChecker - функция, которая проверяет, свободна ли клетка.
func CanMoveToPosition(newPos vec.Vec2, f Footprint, cellChecker func(vec.Vec2) bool) bool {
	return f.Cells(newPos, cellChecker)
}

// Distance возвращает расстояние Чебышёва между краями двух объектов
func Distance(pos1 vec.Vec2, f1 Footprint, pos2 vec.Vec2, f2 Footprint) int {
	return f1.Rect(pos1).Gap(f2.Rect(pos2))
}
