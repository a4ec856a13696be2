package app

import (
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world/entity"
)

// UnitView - снимок состояния объекта и его движения
type UnitView struct {
	ID        uint64
	Kind      entity.Kind
	Layer     uint8
	Position  vec.Vec2
	Width     int
	Height    int
	Player    int
	Moving    bool
	Tracked   bool
	Goal      vec.Vec2
	MinRange  int
	MaxRange  int
	Steps     []vec.Direction // Оставшиеся шаги закэшированного маршрута
	Outcome   string
	Cycles    int
	Recompute bool
}

// TileView - состояние одной клетки
type TileView struct {
	Flags      uint64
	SpeedClass int
	Cost       int
	Explored   uint16
	Occupants  []uint64
}

// LayerView - описание слоя
type LayerView struct {
	ID      uint8
	Width   int
	Height  int
	Version uint64
}

func (s *Simulation) view(u *entity.Unit) UnitView {
	fp := u.Footprint()
	v := UnitView{
		ID:       u.ID(),
		Kind:     u.Kind(),
		Layer:    uint8(u.Layer()),
		Position: u.Position(),
		Width:    fp.Width,
		Height:   fp.Height,
		Player:   u.Player(),
		Moving:   u.Moving(),
	}
	if e, ok := s.tracker.Get(u.ID()); ok {
		v.Tracked = true
		v.Goal = e.Request.Goal
		v.MinRange = e.Request.MinRange
		v.MaxRange = e.Request.MaxRange
		v.Steps = append([]vec.Direction(nil), e.Result.Steps()...)
		v.Outcome = e.Result.Outcome.String()
		v.Cycles = e.Result.Cycles
		v.Recompute = e.Request.Recalculate
	}
	return v
}
