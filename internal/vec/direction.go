package vec

// Direction - один из восьми компасных шагов. Порядок значений фиксирован
// и определяет порядок обхода соседей во всех алгоритмах.
type Direction int8

const (
	DirNone Direction = -1
	DirN    Direction = 0
	DirNE   Direction = 1
	DirE    Direction = 2
	DirSE   Direction = 3
	DirS    Direction = 4
	DirSW   Direction = 5
	DirW    Direction = 6
	DirNW   Direction = 7

	DirCount = 8
)

// Векторы шагов в порядке DirN..DirNW (ось Y направлена вниз)
var dirVectors = [DirCount]Vec2{
	{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
	{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
}

var dirNames = [DirCount]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Valid сообщает, что значение - одно из восьми направлений
func (d Direction) Valid() bool {
	return d >= DirN && d <= DirNW
}

// Vector возвращает смещение на один шаг
func (d Direction) Vector() Vec2 {
	if !d.Valid() {
		return Vec2{}
	}
	return dirVectors[d]
}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return DirNone
	}
	return (d + 4) % DirCount
}

// Diagonal сообщает, что шаг диагональный
func (d Direction) Diagonal() bool {
	return d.Valid() && d%2 == 1
}

// String возвращает компасное имя направления
func (d Direction) String() string {
	if !d.Valid() {
		return "none"
	}
	return dirNames[d]
}

// Step возвращает соседнюю клетку в направлении d
func (v Vec2) Step(d Direction) Vec2 {
	return v.Add(d.Vector())
}

// DirectionTo возвращает направление единичного шага из v в other.
// Для несоседних или совпадающих клеток возвращает DirNone.
func (v Vec2) DirectionTo(other Vec2) Direction {
	delta := other.Sub(v)
	for d := DirN; d <= DirNW; d++ {
		if dirVectors[d] == delta {
			return d
		}
	}
	return DirNone
}

// ParseDirection разбирает компасное имя направления
func ParseDirection(s string) Direction {
	for d, name := range dirNames {
		if name == s {
			return Direction(d)
		}
	}
	return DirNone
}
