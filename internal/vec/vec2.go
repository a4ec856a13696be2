package vec

// Vec2 представляет 2D координаты клетки на слое карты
type Vec2 struct {
	X, Y int
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Chebyshev возвращает расстояние, в котором диагональный шаг считается за один
func (v Vec2) Chebyshev(other Vec2) int {
	return max(Abs(v.X-other.X), Abs(v.Y-other.Y))
}

// Manhattan возвращает сумму модулей разностей координат
func (v Vec2) Manhattan(other Vec2) int {
	return Abs(v.X-other.X) + Abs(v.Y-other.Y)
}

// Abs возвращает модуль целого числа
func Abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Sign возвращает -1, 0 или 1
func Sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
