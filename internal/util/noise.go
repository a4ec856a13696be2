package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise - генератор шума Перлина с фиксированным сидом
type Noise struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoise создаёт генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{
		seed:   seed,
		perlin: perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Seed возвращает сид генератора
func (n *Noise) Seed() int64 {
	return n.seed
}

// Noise2D возвращает значение шума Перлина для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	// Получаем значение шума (от -1 до 1)
	v := n.perlin.Noise2D(x, y)

	// Преобразуем в диапазон от 0 до 1 и обрезаем выбросы
	v = (v + 1.0) / 2.0
	return min(max(v, 0), 1)
}
