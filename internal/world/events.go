package world

import (
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
)

// EventType определяет тип события слоя
type EventType uint8

const (
	EventTypeTerrainChange   EventType = iota // Изменился ландшафт клетки
	EventTypeBuildingPlaced                   // Поставлено здание
	EventTypeBuildingRemoved                  // Здание снесено
)

// String возвращает имя типа события
func (t EventType) String() string {
	switch t {
	case EventTypeTerrainChange:
		return "terrain_change"
	case EventTypeBuildingPlaced:
		return "building_placed"
	case EventTypeBuildingRemoved:
		return "building_removed"
	default:
		return "unknown"
	}
}

// TerrainEvent описывает изменение проходимости области слоя
type TerrainEvent struct {
	EventType EventType
	Layer     LayerID
	Position  vec.Vec2          // Левая верхняя клетка изменённой области
	Size      physics.Footprint // Размер изменённой области
	OldFlags  TileFlag
	NewFlags  TileFlag
	Version   uint64 // Версия связности слоя после изменения
}

// GetType возвращает тип события
func (e TerrainEvent) GetType() EventType {
	return e.EventType
}

// Area возвращает изменённую область
func (e TerrainEvent) Area() vec.Rect {
	return e.Size.Rect(e.Position)
}

// TerrainListener получает события изменения слоя
type TerrainListener func(ev TerrainEvent)
