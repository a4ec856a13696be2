package world

import (
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
)

// Occupant - объект, занимающий клетки слоя (юнит или здание).
// Ядро поиска только читает эти данные и никогда не меняет состояние объекта.
type Occupant interface {
	ID() uint64                   // Уникальный ID объекта
	Position() vec.Vec2           // Левая верхняя клетка
	Footprint() physics.Footprint // Размер в клетках
	Layer() LayerID               // Текущий слой
	Presence() TileFlag           // Бит присутствия: FlagLandUnit, FlagBuilding и т.д.
	Moving() bool                 // Объект сейчас в движении
}

// Insert размещает объект на слое и выставляет биты присутствия на его клетках.
// Повторная вставка того же ID сначала убирает старое размещение.
func (l *Layer) Insert(o Occupant) {
	if _, exists := l.placed[o.ID()]; exists {
		l.Remove(o)
	}

	pl := placement{
		pos:       o.Position(),
		footprint: o.Footprint().Normalize(),
		presence:  o.Presence() & FlagPresence,
	}
	l.placed[o.ID()] = pl

	pl.footprint.Cells(pl.pos, func(c vec.Vec2) bool {
		if !l.InBounds(c) {
			return true
		}
		tile := l.Tile(c)
		tile.occupants = append(tile.occupants, o)
		tile.Flags |= pl.presence
		return true
	})

	if pl.presence&FlagBuilding != 0 {
		l.version++
		l.notify(TerrainEvent{
			EventType: EventTypeBuildingPlaced,
			Layer:     l.ID,
			Position:  pl.pos,
			Size:      pl.footprint,
			NewFlags:  pl.presence,
			Version:   l.version,
		})
	}
}

// Remove убирает объект со слоя. Биты присутствия снимаются с клетки,
// только когда её покидает последний объект этого вида.
func (l *Layer) Remove(o Occupant) bool {
	pl, exists := l.placed[o.ID()]
	if !exists {
		return false
	}
	delete(l.placed, o.ID())

	pl.footprint.Cells(pl.pos, func(c vec.Vec2) bool {
		if !l.InBounds(c) {
			return true
		}
		tile := l.Tile(c)
		var presence TileFlag
		kept := tile.occupants[:0]
		for _, other := range tile.occupants {
			if other.ID() == o.ID() {
				continue
			}
			kept = append(kept, other)
			presence |= l.placed[other.ID()].presence
		}
		clear(tile.occupants[len(kept):])
		tile.occupants = kept
		tile.Flags = tile.Flags&^FlagPresence | presence
		return true
	})

	if pl.presence&FlagBuilding != 0 {
		l.version++
		l.notify(TerrainEvent{
			EventType: EventTypeBuildingRemoved,
			Layer:     l.ID,
			Position:  pl.pos,
			Size:      pl.footprint,
			OldFlags:  pl.presence,
			Version:   l.version,
		})
	}
	return true
}

// Update переносит объект на его текущую позицию
func (l *Layer) Update(o Occupant) {
	l.Remove(o)
	l.Insert(o)
}

// Placement возвращает позицию, на которой объект был вставлен
func (l *Layer) Placement(id uint64) (vec.Vec2, bool) {
	pl, ok := l.placed[id]
	return pl.pos, ok
}
