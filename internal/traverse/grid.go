package traverse

import (
	"github.com/annel0/rts-pathing/internal/vec"
)

// Extent описывает раскладку рабочей сетки размером со слой карты.
// Перед каждой строкой лежит лишний столбец, и ещё одна клетка лежит в конце,
// поэтому x = -1 и x = Width попадают в служебные клетки, а не в соседнюю строку.
type Extent struct {
	Width  int
	Height int
	Stride int
}

// NewExtent создаёт раскладку для слоя width x height
func NewExtent(width, height int) Extent {
	return Extent{Width: width, Height: height, Stride: width + 1}
}

// Size возвращает количество ячеек рабочей сетки с учётом служебных
func (e Extent) Size() int {
	return e.Height*e.Stride + 1
}

// Index возвращает индекс ячейки. Корректен для -1 <= x <= Width и 0 <= y < Height.
func (e Extent) Index(p vec.Vec2) int {
	return p.Y*e.Stride + p.X + 1
}

// Position восстанавливает координату по индексу обычной ячейки
func (e Extent) Position(idx int) vec.Vec2 {
	idx--
	return vec.Vec2{X: idx % e.Stride, Y: idx / e.Stride}
}

// InBounds проверяет, что клетка принадлежит слою
func (e Extent) InBounds(p vec.Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < e.Width && p.Y < e.Height
}

// IsPadding сообщает, что индекс принадлежит служебной ячейке
func (e Extent) IsPadding(idx int) bool {
	return idx%e.Stride == 0 || idx >= e.Height*e.Stride
}
