package api

import (
	"fmt"
	"sort"

	"github.com/annel0/rts-pathing/internal/app"
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/physics"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/annel0/rts-pathing/internal/world/entity"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Point - клетка слоя
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) vec() vec.Vec2 { return vec.Vec2{X: p.X, Y: p.Y} }

func pointOf(v vec.Vec2) Point { return Point{X: v.X, Y: v.Y} }

// Size - размер в клетках; нули означают 1x1
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

func (s Size) footprint() physics.Footprint { return physics.NewFootprint(s.W, s.H) }

// Имена флагов клетки для API
var flagNames = map[string]world.TileFlag{
	"opaque":         world.FlagOpaque,
	"land":           world.FlagLandAllowed,
	"coast":          world.FlagCoastAllowed,
	"water":          world.FlagWaterAllowed,
	"no_building":    world.FlagNoBuilding,
	"unpassable":     world.FlagUnpassable,
	"wall":           world.FlagWall,
	"rocks":          world.FlagRocks,
	"forest":         world.FlagForest,
	"land_unit":      world.FlagLandUnit,
	"air_unit":       world.FlagAirUnit,
	"sea_unit":       world.FlagSeaUnit,
	"building":       world.FlagBuilding,
	"bridge":         world.FlagBridge,
	"air_unpassable": world.FlagAirUnpassable,
	"decorative":     world.FlagDecorative,
	"non_mixing":     world.FlagNonMixing,
	"item":           world.FlagItem,
	"road":           world.FlagRoad,
	"railroad":       world.FlagRailroad,
	"no_rail":        world.FlagNoRail,
}

func parseFlags(names []string) (world.TileFlag, error) {
	var flags world.TileFlag
	for _, name := range names {
		f, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("неизвестный флаг %q", name)
		}
		flags |= f
	}
	return flags, nil
}

func flagList(flags world.TileFlag) []string {
	var names []string
	for name, f := range flagNames {
		if flags&f != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// maskFor возвращает маску: явные биты или маску вида передвижения (по умолчанию land)
func maskFor(kind string, mask *uint64) (world.TileFlag, error) {
	if mask != nil {
		return world.TileFlag(*mask), nil
	}
	if kind == "" {
		return world.MaskLandUnit, nil
	}
	k, ok := entity.ParseKind(kind)
	if !ok || k == entity.KindBuilding {
		return 0, fmt.Errorf("неизвестный вид передвижения %q", kind)
	}
	return k.Mask(), nil
}

// PathRequest - запрос разового поиска пути
type PathRequest struct {
	Layer         uint8   `json:"layer"`
	Self          uint64  `json:"self"`
	Player        *int    `json:"player"` // nil - карта известна полностью
	Start         Point   `json:"start"`
	Size          Size    `json:"size"`
	Goal          Point   `json:"goal"`
	GoalSize      Size    `json:"goal_size"`
	MinRange      int     `json:"min_range"`
	MaxRange      int     `json:"max_range"`
	MaxLength     int     `json:"max_length"`
	Kind          string  `json:"kind"`
	Mask          *uint64 `json:"mask"`
	BlockOccupied bool    `json:"block_occupied"`
}

func (r *PathRequest) query() (pathfind.Query, error) {
	mask, err := maskFor(r.Kind, r.Mask)
	if err != nil {
		return pathfind.Query{}, err
	}
	player := -1
	if r.Player != nil {
		player = *r.Player
	}
	return pathfind.Query{
		Self:          r.Self,
		Player:        player,
		Start:         r.Start.vec(),
		Size:          r.Size.footprint(),
		Goal:          r.Goal.vec(),
		GoalSize:      r.GoalSize.footprint(),
		MinRange:      r.MinRange,
		MaxRange:      r.MaxRange,
		MaxLength:     r.MaxLength,
		Mask:          mask,
		BlockOccupied: r.BlockOccupied,
	}, nil
}

// PathResponse - результат поиска
type PathResponse struct {
	Outcome   string   `json:"outcome"`
	Steps     []string `json:"steps"`
	Length    int      `json:"length"`
	Cost      int      `json:"cost"`
	Heuristic int      `json:"heuristic"`
	Expanded  int      `json:"expanded"`
}

func pathResponse(p *pathfind.Path) PathResponse {
	resp := PathResponse{
		Outcome:   p.Outcome.String(),
		Steps:     directionNames(p.Steps()),
		Length:    p.Length,
		Cost:      p.Cost,
		Heuristic: p.Heuristic,
		Expanded:  p.Expanded,
	}
	return resp
}

func directionNames(steps []vec.Direction) []string {
	names := make([]string, len(steps))
	for i, d := range steps {
		names[i] = d.String()
	}
	return names
}

// NearestRequest - поиск ближайшей клетки с флагами
type NearestRequest struct {
	Layer   uint8    `json:"layer"`
	Start   Point    `json:"start"`
	Kind    string   `json:"kind"`
	Mask    *uint64  `json:"mask"`
	Want    []string `json:"want" binding:"required"`
	MaxDist int      `json:"max_dist"`
}

// PlacementRequest - поиск места для объекта
type PlacementRequest struct {
	Layer   uint8   `json:"layer"`
	Near    Point   `json:"near"`
	Size    Size    `json:"size"`
	Kind    string  `json:"kind"`
	Mask    *uint64 `json:"mask"`
	MaxDist int     `json:"max_dist"`
}

// TerrainRequest - правка ландшафта в прямоугольнике
type TerrainRequest struct {
	Area  Point    `json:"at"`
	Size  Size     `json:"size"`
	Set   []string `json:"set"`
	Clear []string `json:"clear"`
}

// SpawnRequest - создание объекта
type SpawnRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Layer  uint8  `json:"layer"`
	At     Point  `json:"at"`
	Size   Size   `json:"size"`
	Player *int   `json:"player"`
}

// OrderRequest - новая цель объекта
type OrderRequest struct {
	Goal     Point  `json:"goal"`
	GoalSize Size   `json:"goal_size"`
	Layer    *uint8 `json:"layer"` // nil - текущий слой объекта
	MinRange int    `json:"min_range"`
	MaxRange int    `json:"max_range"`
}

// TickRequest - ручной запуск циклов
type TickRequest struct {
	Count int `json:"count"`
}

// UnitResponse - состояние объекта
type UnitResponse struct {
	ID        uint64   `json:"id"`
	Kind      string   `json:"kind"`
	Layer     uint8    `json:"layer"`
	Position  Point    `json:"position"`
	Size      Size     `json:"size"`
	Player    int      `json:"player"`
	Moving    bool     `json:"moving"`
	Tracked   bool     `json:"tracked"`
	Goal      *Point   `json:"goal,omitempty"`
	MinRange  int      `json:"min_range"`
	MaxRange  int      `json:"max_range"`
	Steps     []string `json:"steps"`
	Outcome   string   `json:"outcome,omitempty"`
	Cycles    int      `json:"cycles"`
	Recompute bool     `json:"recompute"`
}

func unitResponse(u app.UnitView) UnitResponse {
	resp := UnitResponse{
		ID:        u.ID,
		Kind:      u.Kind.String(),
		Layer:     u.Layer,
		Position:  pointOf(u.Position),
		Size:      Size{W: u.Width, H: u.Height},
		Player:    u.Player,
		Moving:    u.Moving,
		Tracked:   u.Tracked,
		MinRange:  u.MinRange,
		MaxRange:  u.MaxRange,
		Steps:     directionNames(u.Steps),
		Outcome:   u.Outcome,
		Cycles:    u.Cycles,
		Recompute: u.Recompute,
	}
	if u.Tracked {
		goal := pointOf(u.Goal)
		resp.Goal = &goal
	}
	return resp
}

// SettingsDTO - настройки поиска в JSON
type SettingsDTO struct {
	FixedUnitCrossingCost  int  `json:"fixed_unit_crossing_cost"`
	MovingUnitCrossingCost int  `json:"moving_unit_crossing_cost"`
	AssumeUnseenKnown      bool `json:"assume_unseen_known"`
	UnknownTerrainCost     int  `json:"unknown_terrain_cost"`
	AllowCornerCutting     bool `json:"allow_corner_cutting"`
	MaxSearchLength        int  `json:"max_search_length"`
	MaxExpansions          int  `json:"max_expansions"`
}

func settingsDTO(s pathfind.Settings) SettingsDTO {
	return SettingsDTO(s)
}

func (d SettingsDTO) settings() (pathfind.Settings, error) {
	if d.FixedUnitCrossingCost < 0 || d.MovingUnitCrossingCost < 0 || d.UnknownTerrainCost < 0 {
		return pathfind.Settings{}, fmt.Errorf("стоимости не могут быть отрицательными")
	}
	if d.MaxSearchLength <= 0 || d.MaxExpansions < 0 {
		return pathfind.Settings{}, fmt.Errorf("некорректные границы поиска")
	}
	return pathfind.Settings(d), nil
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
