package world

import (
	"math/rand"

	"github.com/annel0/rts-pathing/internal/util"
	"github.com/annel0/rts-pathing/internal/vec"
)

// Константы высот для генерации
const (
	DeepWaterMax  = 0.30 // Ниже - вода
	CoastMax      = 0.36 // Ниже - побережье
	HillsStart    = 0.62 // Выше - холмы (медленнее)
	MountainStart = 0.78 // Выше - скалы
)

// Generator заполняет слой флагами ландшафта по шуму Перлина.
// Используется инструментами и тестами; в симуляции карты загружаются готовыми.
type Generator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	ForestScale   float64 // Масштаб шума лесов
	ForestDensity float64 // Порог шума, выше которого растёт лес
	BridgeEvery   int     // Шаг между мостами через воду по горизонтали, 0 - без мостов

	noise *util.Noise
}

// NewGenerator создаёт генератор с настройками по умолчанию
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:          seed,
		NoiseScale:    0.08,
		ForestScale:   0.15,
		ForestDensity: 0.72,
		noise:         util.NewNoise(seed),
	}
}

// Generate заполняет слой и возвращает его. Прежнее содержимое клеток теряется.
func (g *Generator) Generate(l *Layer) *Layer {
	rng := rand.New(rand.NewSource(g.Seed))

	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			height := g.noise.Noise2D(float64(x)*g.NoiseScale, float64(y)*g.NoiseScale)
			forest := g.noise.Noise2D(float64(x)*g.ForestScale+100, float64(y)*g.ForestScale+100)

			tile := l.Tile(vec.Vec2{X: x, Y: y})
			tile.Flags = g.flagsForHeight(height, forest, rng)
			if g.BridgeEvery > 0 && tile.Flags&FlagWaterAllowed != 0 && y%g.BridgeEvery == 0 {
				tile.Flags |= FlagBridge
			}
		}
	}

	// Целиком новая карта - новая версия связности
	l.version++
	return l
}

// flagsForHeight возвращает флаги клетки для высоты и плотности леса
func (g *Generator) flagsForHeight(height, forest float64, rng *rand.Rand) TileFlag {
	switch {
	case height < DeepWaterMax:
		return FlagWaterAllowed | FlagNoBuilding
	case height < CoastMax:
		return FlagCoastAllowed | FlagNoBuilding
	case height >= MountainStart:
		return FlagRocks | FlagNoBuilding | FlagOpaque
	}

	flags := FlagLandAllowed
	if height >= HillsStart {
		flags = flags.WithSpeedClass(1 + rng.Intn(2))
	}
	if forest > g.ForestDensity {
		flags |= FlagForest | FlagOpaque
	}
	return flags
}
