package vec

// Rect - прямоугольник клеток: левый верхний угол Min и размеры W x H.
// Пустым считается прямоугольник с W <= 0 или H <= 0.
type Rect struct {
	Min  Vec2
	W, H int
}

// NewRect создаёт прямоугольник по углу и размерам
func NewRect(pos Vec2, w, h int) Rect {
	return Rect{Min: pos, W: w, H: h}
}

// Max возвращает правый нижний угол (включительно)
func (r Rect) Max() Vec2 {
	return Vec2{X: r.Min.X + r.W - 1, Y: r.Min.Y + r.H - 1}
}

// Empty сообщает, что прямоугольник не содержит клеток
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains проверяет, лежит ли точка внутри прямоугольника
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X < r.Min.X+r.W &&
		p.Y >= r.Min.Y && p.Y < r.Min.Y+r.H
}

// Expand расширяет прямоугольник на n клеток во все стороны
func (r Rect) Expand(n int) Rect {
	return Rect{
		Min: Vec2{X: r.Min.X - n, Y: r.Min.Y - n},
		W:   r.W + 2*n,
		H:   r.H + 2*n,
	}
}

// Intersect возвращает пересечение двух прямоугольников
func (r Rect) Intersect(other Rect) Rect {
	minX := max(r.Min.X, other.Min.X)
	minY := max(r.Min.Y, other.Min.Y)
	maxX := min(r.Min.X+r.W, other.Min.X+other.W)
	maxY := min(r.Min.Y+r.H, other.Min.Y+other.H)
	if maxX <= minX || maxY <= minY {
		return Rect{Min: Vec2{X: minX, Y: minY}}
	}
	return Rect{Min: Vec2{X: minX, Y: minY}, W: maxX - minX, H: maxY - minY}
}

// Gap возвращает расстояние Чебышёва между ближайшими клетками двух прямоугольников.
// Для пересекающихся прямоугольников результат 0.
func (r Rect) Gap(other Rect) int {
	dx := max(0, other.Min.X-(r.Min.X+r.W-1), r.Min.X-(other.Min.X+other.W-1))
	dy := max(0, other.Min.Y-(r.Min.Y+r.H-1), r.Min.Y-(other.Min.Y+other.H-1))
	return max(dx, dy)
}

// Nearest возвращает клетку прямоугольника, ближайшую к точке p
func (r Rect) Nearest(p Vec2) Vec2 {
	return Vec2{
		X: min(max(p.X, r.Min.X), r.Min.X+r.W-1),
		Y: min(max(p.Y, r.Min.Y), r.Min.Y+r.H-1),
	}
}
