package api

import (
	"net/http"

	"github.com/annel0/rts-pathing/internal/movement"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/annel0/rts-pathing/internal/world/entity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleUnits возвращает все объекты
func (rs *RestServer) handleUnits(c *gin.Context) {
	units := rs.sim.Units()
	data := make([]UnitResponse, len(units))
	for i, u := range units {
		data[i] = unitResponse(u)
	}
	ok(c, "Список объектов", data)
}

// handleUnit возвращает объект и его маршрут
func (rs *RestServer) handleUnit(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	u, err := rs.sim.Unit(id)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Объект", unitResponse(u))
}

// handleSpawn создаёт объект в ближайшем свободном месте
func (rs *RestServer) handleSpawn(c *gin.Context) {
	var req SpawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	kind, valid := entity.ParseKind(req.Kind)
	if !valid {
		fail(c, http.StatusBadRequest, "Неизвестный вид объекта %q", req.Kind)
		return
	}
	player := -1
	if req.Player != nil {
		player = *req.Player
	}

	u, err := rs.sim.Spawn(kind, world.LayerID(req.Layer), req.At.vec(), req.Size.footprint(), player)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	rs.log.Info("Создан объект %d (%s) в %v", u.ID, u.Kind, u.Position)
	ok(c, "Объект создан", unitResponse(u))
}

// handleDespawn удаляет объект
func (rs *RestServer) handleDespawn(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if !rs.sim.Despawn(id) {
		fail(c, http.StatusNotFound, "Объект %d не найден", id)
		return
	}
	ok(c, "Объект удалён", nil)
}

// handleOrder назначает объекту новую цель
func (rs *RestServer) handleOrder(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	if req.MinRange < 0 || req.MaxRange < 0 {
		fail(c, http.StatusBadRequest, "Дистанция не может быть отрицательной")
		return
	}

	u, err := rs.sim.Unit(id)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	layer := world.LayerID(u.Layer)
	if req.Layer != nil {
		layer = world.LayerID(*req.Layer)
	}

	if err := rs.sim.Order(id, req.Goal.vec(), req.GoalSize.footprint(), layer, req.MinRange, req.MaxRange); err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	u, _ = rs.sim.Unit(id)
	ok(c, "Приказ принят", unitResponse(u))
}

// handleTick прогоняет циклы симуляции вручную
func (rs *RestServer) handleTick(c *gin.Context) {
	req := TickRequest{Count: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
			return
		}
	}
	if req.Count < 1 || req.Count > MaxTicksPerRequest {
		fail(c, http.StatusBadRequest, "Число циклов должно быть от 1 до %d", MaxTicksPerRequest)
		return
	}

	var total movement.Stats
	for i := 0; i < req.Count; i++ {
		stats := rs.sim.Tick()
		total.Moved += stats.Moved
		total.Waiting += stats.Waiting
		total.Reached += stats.Reached
		total.Unreachable += stats.Unreachable
		total.Failed += stats.Failed
	}
	ok(c, "Циклы выполнены", gin.H{
		"ticks":       rs.sim.Ticks(),
		"moved":       total.Moved,
		"waiting":     total.Waiting,
		"reached":     total.Reached,
		"unreachable": total.Unreachable,
		"failed":      total.Failed,
	})
}

// handleGetSettings возвращает настройки поиска
func (rs *RestServer) handleGetSettings(c *gin.Context) {
	ok(c, "Настройки поиска", settingsDTO(rs.sim.Settings()))
}

// handlePutSettings заменяет настройки поиска
func (rs *RestServer) handlePutSettings(c *gin.Context) {
	var req SettingsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: %v", err)
		return
	}
	settings, err := req.settings()
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	rs.sim.SetSettings(settings)
	ok(c, "Настройки обновлены", settingsDTO(settings))
}

// handleListSaves возвращает список сохранений
func (rs *RestServer) handleListSaves(c *gin.Context) {
	saves, err := rs.sim.Saves(c.Request.Context())
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	data := make([]gin.H, len(saves))
	for i, s := range saves {
		data[i] = gin.H{"id": s.ID.String(), "units": s.Units, "created": s.Created.Unix()}
	}
	ok(c, "Сохранения", data)
}

// handleSave сохраняет состояние движения
func (rs *RestServer) handleSave(c *gin.Context) {
	id, n, err := rs.sim.Save(c.Request.Context())
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Состояние сохранено", gin.H{"id": id.String(), "units": n})
}

// handleLoadSave восстанавливает состояние движения
func (rs *RestServer) handleLoadSave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Некорректный ID сохранения")
		return
	}
	n, err := rs.sim.Load(c.Request.Context(), id)
	if err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Состояние загружено", gin.H{"id": id.String(), "units": n})
}

// handleDeleteSave удаляет сохранение
func (rs *RestServer) handleDeleteSave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Некорректный ID сохранения")
		return
	}
	if err := rs.sim.DeleteSave(c.Request.Context(), id); err != nil {
		fail(c, errorStatus(err), "%v", err)
		return
	}
	ok(c, "Сохранение удалено", nil)
}
