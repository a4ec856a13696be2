package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/rts-pathing/internal/app"
	"github.com/annel0/rts-pathing/internal/auth"
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/annel0/rts-pathing/internal/middleware"
	"github.com/annel0/rts-pathing/internal/storage"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/annel0/rts-pathing/internal/world/entity"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// MaxTicksPerRequest ограничивает число циклов за один вызов /api/tick
const MaxTicksPerRequest = 1000

// RestServer представляет REST API навигационного сервиса
type RestServer struct {
	router    *gin.Engine
	sim       *app.Simulation
	port      string
	metrics   *ServerMetrics
	tokens    *auth.TokenIssuer // nil - изменяющие эндпоинты открыты
	operators *auth.Operators
	log       *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string                // порт для запуска сервера
	Simulation *app.Simulation       // симуляция, которую обслуживает API
	Registry   prometheus.Registerer // регистр HTTP-метрик
	Gatherer   prometheus.Gatherer   // источник для /metrics
	Tokens     *auth.TokenIssuer     // nil - без авторизации
	Operators  *auth.Operators
	Tracing    bool // добавить otelgin middleware
	Logger     *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8090"
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	router.Use(middleware.NewRequestLogger(config.Logger).Handler())
	if config.Tracing {
		router.Use(otelgin.Middleware("navserver"))
	}

	promMw := middleware.NewPrometheusMiddleware("navserver", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	server := &RestServer{
		router:    router,
		sim:       config.Simulation,
		port:      config.Port,
		metrics:   NewServerMetrics(),
		tokens:    config.Tokens,
		operators: config.Operators,
		log:       config.Logger,
	}

	server.setupRoutes()
	return server
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.POST("/auth/login", rs.handleLogin)

	// Чтение и разовые поиски доступны всем
	api.GET("/stats", rs.handleStats)
	api.GET("/layers", rs.handleLayers)
	api.GET("/layers/:layer/tiles/:x/:y", rs.handleTile)
	api.GET("/layers/:layer/regions", rs.handleRegions)
	api.POST("/path", rs.handlePath)
	api.POST("/reachable", rs.handleReachable)
	api.POST("/nearest", rs.handleNearest)
	api.POST("/placement", rs.handlePlacement)
	api.GET("/units", rs.handleUnits)
	api.GET("/units/:id", rs.handleUnit)
	api.GET("/settings", rs.handleGetSettings)
	api.GET("/saves", rs.handleListSaves)

	// Изменяющие эндпоинты
	admin := api.Group("/")
	admin.Use(rs.jwtMiddleware(), rs.adminMiddleware())
	{
		admin.PATCH("/layers/:layer/terrain", rs.handleTerrain)
		admin.POST("/units", rs.handleSpawn)
		admin.DELETE("/units/:id", rs.handleDespawn)
		admin.POST("/units/:id/order", rs.handleOrder)
		admin.POST("/tick", rs.handleTick)
		admin.PUT("/settings", rs.handlePutSettings)
		admin.POST("/saves", rs.handleSave)
		admin.POST("/saves/:id/load", rs.handleLoadSave)
		admin.DELETE("/saves/:id", rs.handleDeleteSave)
	}
}

func fail(c *gin.Context, status int, format string, args ...interface{}) {
	c.JSON(status, GenericResponse{
		Success: false,
		Message: fmt.Sprintf(format, args...),
	})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// errorStatus переводит ошибку домена в HTTP статус
func errorStatus(err error) int {
	switch {
	case errors.Is(err, world.ErrUnknownLayer),
		errors.Is(err, app.ErrUnknownUnit),
		errors.Is(err, storage.ErrSaveNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrNoPlacement):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoStore), errors.Is(err, storage.ErrStoreClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func layerParam(c *gin.Context) (world.LayerID, bool) {
	v, err := strconv.ParseUint(c.Param("layer"), 10, 8)
	if err != nil {
		fail(c, http.StatusBadRequest, "Некорректный номер слоя")
		return 0, false
	}
	return world.LayerID(v), true
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Некорректный ID")
		return 0, false
	}
	return id, true
}

// handleHealth проверка состояния
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ticks":  rs.sim.Ticks(),
		"time":   time.Now().Unix(),
	})
}

// handleLogin выдаёт токен оператору
func (rs *RestServer) handleLogin(c *gin.Context) {
	if rs.tokens == nil || rs.operators == nil {
		fail(c, http.StatusNotFound, "Авторизация отключена")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	op, err := rs.operators.Authenticate(req.Username, req.Password)
	if err != nil {
		rs.log.Warn("Неудачный вход оператора %q", req.Username)
		fail(c, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	}

	token, err := rs.tokens.Generate(op.Username, op.IsAdmin)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}
	ok(c, "Вход выполнен", gin.H{"token": token, "is_admin": op.IsAdmin})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	cpuPercent, _ := rs.metrics.GetCPUUsage()
	units := rs.sim.Units()

	tracked := 0
	for _, u := range units {
		if u.Tracked {
			tracked++
		}
	}

	ok(c, "Статистика получена", gin.H{
		"server": gin.H{
			"uptime":      rs.metrics.GetUptime(),
			"memory_mb":   fmt.Sprintf("%.2f", rs.metrics.GetMemoryUsage()),
			"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
			"server_time": time.Now().Unix(),
		},
		"memory_details": rs.metrics.GetDetailedMemoryStats(),
		"simulation": gin.H{
			"ticks":   rs.sim.Ticks(),
			"units":   len(units),
			"tracked": tracked,
			"layers":  len(rs.sim.Layers()),
		},
	})
}
