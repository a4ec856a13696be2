package api

import (
	"net/http"
	"strconv"

	"github.com/annel0/rts-pathing/internal/observability"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// handleLayers возвращает список слоёв
func (rs *RestServer) handleLayers(c *gin.Context) {
	layers := rs.sim.Layers()
	data := make([]gin.H, len(layers))
	for i, l := range layers {
		data[i] = gin.H{"id": l.ID, "width": l.Width, "height": l.Height, "version": l.Version}
	}
	ok(c, "Слои мира", data)
}

// handleTile возвращает состояние клетки
func (rs *RestServer) handleTile(c *gin.Context) {
	layer, valid := layerParam(c)
	if !valid {
		return
	}
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errX != nil || errY != nil {
		fail(c, http.StatusBadRequest, "Некорректные координаты")
		return
	}

	tile, err := rs.sim.Tile(layer, vec.Vec2{X: x, Y: y})
	if err != nil {
		fail(c, http.StatusNotFound, "%v", err)
		return
	}
	ok(c, "Клетка", gin.H{
		"flags":       tile.Flags,
		"names":       flagList(world.TileFlag(tile.Flags)),
		"speed_class": tile.SpeedClass,
		"cost":        tile.Cost,
		"explored":    tile.Explored,
		"occupants":   tile.Occupants,
	})
}

// handleRegions размечает связные области слоя
func (rs *RestServer) handleRegions(c *gin.Context) {
	layer, valid := layerParam(c)
	if !valid {
		return
	}
	var mask *uint64
	if raw := c.Query("mask"); raw != "" {
		v, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "Некорректная маска")
			return
		}
		mask = &v
	}
	m, err := maskFor(c.Query("kind"), mask)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	summary, err := rs.sim.RegionSummary(c.Request.Context(), layer, m)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Связные области", gin.H{"count": summary.Count, "sizes": summary.Sizes})
}

// handlePath выполняет разовый поиск пути
func (rs *RestServer) handlePath(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	q, err := req.query()
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	_, span := observability.Tracer().Start(c.Request.Context(), "pathfind.Search")
	path, err := rs.sim.Search(world.LayerID(req.Layer), q)
	span.SetAttributes(
		attribute.String("outcome", path.Outcome.String()),
		attribute.Int("expanded", path.Expanded),
	)
	span.End()
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Поиск выполнен", pathResponse(&path))
}

// handleReachable проверяет связность обходом в ширину
func (rs *RestServer) handleReachable(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	q, err := req.query()
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	connected, err := rs.sim.Connected(world.LayerID(req.Layer), q)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Проверка связности", gin.H{"connected": connected})
}

// handleNearest ищет ближайшую клетку с нужными флагами
func (rs *RestServer) handleNearest(c *gin.Context) {
	var req NearestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	mask, err := maskFor(req.Kind, req.Mask)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	want, err := parseFlags(req.Want)
	if err != nil || want == 0 {
		fail(c, http.StatusBadRequest, "Некорректный набор флагов: %v", err)
		return
	}

	pos, found, err := rs.sim.Nearest(world.LayerID(req.Layer), req.Start.vec(), mask, want, req.MaxDist)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	data := gin.H{"found": found}
	if found {
		data["position"] = pointOf(pos)
	}
	ok(c, "Поиск ближайшей клетки", data)
}

// handlePlacement ищет ближайшее место, где помещается объект
func (rs *RestServer) handlePlacement(c *gin.Context) {
	var req PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	mask, err := maskFor(req.Kind, req.Mask)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	pos, found, err := rs.sim.Placement(world.LayerID(req.Layer), req.Near.vec(), req.Size.footprint(), mask, req.MaxDist)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	data := gin.H{"found": found}
	if found {
		data["position"] = pointOf(pos)
	}
	ok(c, "Поиск места", data)
}

// handleTerrain меняет ландшафт прямоугольника
func (rs *RestServer) handleTerrain(c *gin.Context) {
	layer, valid := layerParam(c)
	if !valid {
		return
	}
	var req TerrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	set, err := parseFlags(req.Set)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	unset, err := parseFlags(req.Clear)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	if (set|unset)&world.FlagPresence != 0 {
		fail(c, http.StatusBadRequest, "Биты занятости меняются только объектами")
		return
	}

	fp := req.Size.footprint()
	version, err := rs.sim.EditTerrain(layer, vec.NewRect(req.Area.vec(), fp.Width, fp.Height), set, unset)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Ландшафт изменён", gin.H{"version": version})
}
