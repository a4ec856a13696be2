package world

// TileFlag - битовое поле клетки. Младшие 3 бита кодируют класс скорости,
// остальные биты - именованные маркеры ландшафта и занятости.
// Раскладка битов является внешним контрактом (сохранения, отрисовка)
// и не должна меняться.
type TileFlag uint64

const (
	FlagSpeedMask     TileFlag = 0x7     // Класс скорости 0..7
	FlagOpaque        TileFlag = 1 << 3  // Клетка закрывает обзор
	FlagLandAllowed   TileFlag = 1 << 4  // Суша
	FlagCoastAllowed  TileFlag = 1 << 5  // Побережье
	FlagWaterAllowed  TileFlag = 1 << 6  // Вода
	FlagNoBuilding    TileFlag = 1 << 7  // Строить нельзя
	FlagUnpassable    TileFlag = 1 << 8  // Непроходимо ни для кого, кроме авиации
	FlagWall          TileFlag = 1 << 9  // Стена
	FlagRocks         TileFlag = 1 << 10 // Скалы
	FlagForest        TileFlag = 1 << 11 // Лес
	FlagLandUnit      TileFlag = 1 << 12 // На клетке наземный юнит
	FlagAirUnit       TileFlag = 1 << 13 // На клетке воздушный юнит
	FlagSeaUnit       TileFlag = 1 << 14 // На клетке морской юнит
	FlagBuilding      TileFlag = 1 << 15 // На клетке здание
	FlagBridge        TileFlag = 1 << 16 // Мост поверх воды
	FlagAirUnpassable TileFlag = 1 << 17 // Непроходимо для авиации
	FlagDecorative    TileFlag = 1 << 18 // Декоративный объект
	FlagNonMixing     TileFlag = 1 << 19 // Не смешивается с соседними тайлами
	FlagItem          TileFlag = 1 << 20 // Лежит предмет
	FlagRoad          TileFlag = 1 << 21 // Дорога
	FlagRailroad      TileFlag = 1 << 22 // Железная дорога
	FlagNoRail        TileFlag = 1 << 23 // Прокладка рельсов запрещена
)

// FlagUnitPresence объединяет биты присутствия подвижных объектов
const FlagUnitPresence = FlagLandUnit | FlagAirUnit | FlagSeaUnit

// FlagPresence объединяет все биты занятости клетки
const FlagPresence = FlagUnitPresence | FlagBuilding

// Маски проходимости для типовых классов юнитов
const (
	MaskLandUnit = FlagLandUnit | FlagBuilding | FlagWaterAllowed | FlagCoastAllowed |
		FlagUnpassable | FlagWall | FlagRocks | FlagForest
	MaskSeaUnit = FlagSeaUnit | FlagBuilding | FlagLandAllowed | FlagBridge |
		FlagUnpassable | FlagWall | FlagRocks | FlagForest
	MaskAirUnit = FlagAirUnit | FlagAirUnpassable
)

// MaxSpeedClass - наибольший класс скорости, умещающийся в FlagSpeedMask
const MaxSpeedClass = 7

// SpeedClass возвращает класс скорости из младших битов
func (f TileFlag) SpeedClass() int {
	return int(f & FlagSpeedMask)
}

// WithSpeedClass возвращает флаги с заменённым классом скорости
func (f TileFlag) WithSpeedClass(class int) TileFlag {
	class = min(max(class, 0), MaxSpeedClass)
	return f&^FlagSpeedMask | TileFlag(class)
}

// Has проверяет, что выставлены все биты other
func (f TileFlag) Has(other TileFlag) bool {
	return f&other == other
}

// Tile - одна клетка слоя карты
type Tile struct {
	Flags    TileFlag
	Explored uint16 // Битовая маска игроков, видевших клетку

	occupants []Occupant
}

// CheckMask возвращает true, если клетка заблокирована для маски.
// Мост снимает с проверки биты воды и побережья.
func (t *Tile) CheckMask(mask TileFlag) bool {
	if t.Flags&FlagBridge != 0 {
		mask &^= FlagWaterAllowed | FlagCoastAllowed
	}
	return t.Flags&mask != 0
}

// Cost возвращает стоимость входа в клетку: 1 << класс скорости
func (t *Tile) Cost() int {
	return 1 << (t.Flags & FlagSpeedMask)
}

// IsExplored проверяет, видел ли игрок эту клетку
func (t *Tile) IsExplored(player int) bool {
	if player < 0 || player >= MaxPlayers {
		return true
	}
	return t.Explored&(1<<uint(player)) != 0
}

// Occupants возвращает объекты на клетке. Срез нельзя изменять.
func (t *Tile) Occupants() []Occupant {
	return t.occupants
}
