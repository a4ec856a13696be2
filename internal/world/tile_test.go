package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileCheckMaskBridge(t *testing.T) {
	mask := FlagWaterAllowed | FlagCoastAllowed

	water := Tile{Flags: FlagWaterAllowed}
	assert.True(t, water.CheckMask(mask), "Вода без моста должна блокировать")

	bridge := Tile{Flags: FlagWaterAllowed | FlagBridge}
	assert.False(t, bridge.CheckMask(mask), "Мост должен снимать биты воды и побережья")

	// Мост не отменяет остальные биты маски
	assert.True(t, bridge.CheckMask(mask|FlagBridge))
}

func TestTileCheckMaskLandUnit(t *testing.T) {
	land := Tile{Flags: FlagLandAllowed}
	assert.False(t, land.CheckMask(MaskLandUnit))

	forest := Tile{Flags: FlagLandAllowed | FlagForest}
	assert.True(t, forest.CheckMask(MaskLandUnit))
	assert.False(t, forest.CheckMask(MaskAirUnit), "Лес не мешает авиации")

	occupied := Tile{Flags: FlagLandAllowed | FlagLandUnit}
	assert.True(t, occupied.CheckMask(MaskLandUnit), "Биты занятости участвуют в той же проверке")
	assert.False(t, occupied.CheckMask(MaskLandUnit&^FlagLandUnit))
}

func TestTileCost(t *testing.T) {
	for class := 0; class <= MaxSpeedClass; class++ {
		tile := Tile{Flags: FlagLandAllowed.WithSpeedClass(class)}
		assert.Equal(t, 1<<class, tile.Cost(), "Класс скорости %d", class)
		assert.Equal(t, class, tile.Flags.SpeedClass())
	}

	// Класс скорости не выходит за 3 бита
	assert.Equal(t, MaxSpeedClass, FlagRoad.WithSpeedClass(42).SpeedClass())
	assert.True(t, FlagRoad.WithSpeedClass(42).Has(FlagRoad))
}

func TestTileExplored(t *testing.T) {
	tile := Tile{}
	assert.False(t, tile.IsExplored(3))
	tile.Explored |= 1 << 3
	assert.True(t, tile.IsExplored(3))
	assert.True(t, tile.IsExplored(-1), "Нейтральная сторона видит всё")
}
