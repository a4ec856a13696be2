package world

import (
	"fmt"

	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
)

// LayerID определяет независимую плоскость карты (поверхность, подземелье и т.д.).
// Поиск пути никогда не переходит между слоями: для этого есть объекты-переходы.
type LayerID uint8

const (
	LayerSurface     LayerID = iota // Основная поверхность
	LayerUnderground                // Подземный уровень
	LayerSky                        // Небесный остров

	MaxLayers LayerID = 16 // Предел количества слоёв в одном мире
)

// MaxPlayers - количество игроков, для которых хранится разведка клеток
const MaxPlayers = 16

// placement запоминает, где был вставлен объект, чтобы корректно его убрать
type placement struct {
	pos       vec.Vec2
	footprint physics.Footprint
	presence  TileFlag
}

// Layer - прямоугольная сетка клеток одного слоя.
// Все изменения выполняются в том же потоке, что и поиск пути.
type Layer struct {
	ID     LayerID
	Width  int
	Height int

	tiles     []Tile
	placed    map[uint64]placement
	version   uint64
	listeners []listenerEntry
	nextSubID int
}

type listenerEntry struct {
	id int
	fn TerrainListener
}

// NewLayer создаёт слой указанного размера. Все клетки - суша с классом скорости 0.
func NewLayer(id LayerID, width, height int) *Layer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("world: некорректный размер слоя %dx%d", width, height))
	}

	l := &Layer{
		ID:     id,
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
		placed: make(map[uint64]placement),
	}
	for i := range l.tiles {
		l.tiles[i].Flags = FlagLandAllowed
	}
	return l
}

// InBounds проверяет, что координата лежит внутри слоя
func (l *Layer) InBounds(p vec.Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < l.Width && p.Y < l.Height
}

// Index возвращает индекс клетки в массиве слоя
func (l *Layer) Index(p vec.Vec2) int {
	return p.Y*l.Width + p.X
}

// Tile возвращает клетку. Проверка границ - на вызывающей стороне.
func (l *Layer) Tile(p vec.Vec2) *Tile {
	return &l.tiles[p.Y*l.Width+p.X]
}

// Flags возвращает флаги клетки
func (l *Layer) Flags(p vec.Vec2) TileFlag {
	return l.tiles[p.Y*l.Width+p.X].Flags
}

// Cost возвращает стоимость входа в клетку
func (l *Layer) Cost(p vec.Vec2) int {
	return l.tiles[p.Y*l.Width+p.X].Cost()
}

// CheckMask возвращает true, если клетка заблокирована маской.
// Клетки за пределами слоя всегда заблокированы.
func (l *Layer) CheckMask(p vec.Vec2, mask TileFlag) bool {
	if !l.InBounds(p) {
		return true
	}
	return l.tiles[p.Y*l.Width+p.X].CheckMask(mask)
}

// FootprintBlocked проверяет все клетки объекта размера fp в позиции pos
func (l *Layer) FootprintBlocked(pos vec.Vec2, fp physics.Footprint, mask TileFlag) bool {
	return !physics.CanMoveToPosition(pos, fp, func(c vec.Vec2) bool {
		return !l.CheckMask(c, mask)
	})
}

// Version возвращает счётчик изменений связности слоя.
// Увеличивается при смене ландшафта и при постройке/сносе зданий.
func (l *Layer) Version() uint64 {
	return l.version
}

// SetTerrain выставляет биты ландшафта клетки
func (l *Layer) SetTerrain(p vec.Vec2, flags TileFlag) {
	l.changeTerrain(p, l.Flags(p)|(flags&^FlagPresence))
}

// ClearTerrain снимает биты ландшафта клетки
func (l *Layer) ClearTerrain(p vec.Vec2, flags TileFlag) {
	l.changeTerrain(p, l.Flags(p)&^(flags&^FlagPresence))
}

// SetSpeedClass меняет класс скорости клетки
func (l *Layer) SetSpeedClass(p vec.Vec2, class int) {
	l.changeTerrain(p, l.Flags(p).WithSpeedClass(class))
}

func (l *Layer) changeTerrain(p vec.Vec2, flags TileFlag) {
	tile := l.Tile(p)
	old := tile.Flags
	if old == flags {
		return
	}
	tile.Flags = flags
	l.version++
	l.notify(TerrainEvent{
		EventType: EventTypeTerrainChange,
		Layer:     l.ID,
		Position:  p,
		Size:      physics.Single,
		OldFlags:  old,
		NewFlags:  flags,
		Version:   l.version,
	})
}

// Explore отмечает клетку как разведанную игроком
func (l *Layer) Explore(p vec.Vec2, player int) {
	if player < 0 || player >= MaxPlayers || !l.InBounds(p) {
		return
	}
	l.Tile(p).Explored |= 1 << uint(player)
}

// ExploreAll отмечает весь слой разведанным игроком
func (l *Layer) ExploreAll(player int) {
	if player < 0 || player >= MaxPlayers {
		return
	}
	for i := range l.tiles {
		l.tiles[i].Explored |= 1 << uint(player)
	}
}

// IsExplored проверяет, видел ли игрок клетку
func (l *Layer) IsExplored(p vec.Vec2, player int) bool {
	return l.Tile(p).IsExplored(player)
}

// Subscribe регистрирует обработчик изменений ландшафта.
// Обработчики вызываются синхронно в порядке регистрации.
func (l *Layer) Subscribe(fn TerrainListener) int {
	id := l.nextSubID
	l.nextSubID++
	l.listeners = append(l.listeners, listenerEntry{id: id, fn: fn})
	return id
}

// Unsubscribe удаляет обработчик
func (l *Layer) Unsubscribe(id int) {
	for i, entry := range l.listeners {
		if entry.id == id {
			l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
			return
		}
	}
}

func (l *Layer) notify(ev TerrainEvent) {
	for _, entry := range l.listeners {
		entry.fn(ev)
	}
}
