package entity

import (
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
)

// Kind - вид передвижения объекта
type Kind uint8

const (
	KindLand     Kind = iota // Наземный юнит
	KindSea                  // Морской юнит
	KindAir                  // Авиация
	KindBuilding             // Здание, не двигается
)

// String возвращает имя вида для API и логов
func (k Kind) String() string {
	switch k {
	case KindLand:
		return "land"
	case KindSea:
		return "sea"
	case KindAir:
		return "air"
	case KindBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// ParseKind разбирает имя вида. Неизвестное имя даёт KindLand и false.
func ParseKind(s string) (Kind, bool) {
	for k := KindLand; k <= KindBuilding; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindLand, false
}

// Mask возвращает маску проходимости вида
func (k Kind) Mask() world.TileFlag {
	switch k {
	case KindSea:
		return world.MaskSeaUnit
	case KindAir:
		return world.MaskAirUnit
	default:
		return world.MaskLandUnit
	}
}

// Presence возвращает бит присутствия, который объект ставит на свои клетки
func (k Kind) Presence() world.TileFlag {
	switch k {
	case KindSea:
		return world.FlagSeaUnit
	case KindAir:
		return world.FlagAirUnit
	case KindBuilding:
		return world.FlagBuilding
	default:
		return world.FlagLandUnit
	}
}

// Unit - объект на карте. Реализует world.Occupant и movement.Mover.
type Unit struct {
	id     uint64
	kind   Kind
	pos    vec.Vec2
	size   physics.Footprint
	layer  world.LayerID
	player int  // -1 - без тумана войны
	moving bool // Получил шаг в последнем цикле
}

func (u *Unit) ID() uint64                   { return u.id }
func (u *Unit) Kind() Kind                   { return u.kind }
func (u *Unit) Position() vec.Vec2           { return u.pos }
func (u *Unit) Footprint() physics.Footprint { return u.size }
func (u *Unit) Layer() world.LayerID         { return u.layer }
func (u *Unit) Presence() world.TileFlag     { return u.kind.Presence() }
func (u *Unit) Moving() bool                 { return u.moving }
func (u *Unit) Player() int                  { return u.player }
func (u *Unit) Mask() world.TileFlag         { return u.kind.Mask() }
