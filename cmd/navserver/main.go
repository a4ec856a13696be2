package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/rts-pathing/internal/api"
	"github.com/annel0/rts-pathing/internal/app"
	"github.com/annel0/rts-pathing/internal/auth"
	"github.com/annel0/rts-pathing/internal/cache"
	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/eventbus"
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/annel0/rts-pathing/internal/observability"
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/storage"
	"github.com/annel0/rts-pathing/internal/world"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе NAV_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("Ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}
	if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		logging.SetDefaultLevel(level)
	} else {
		logging.Warn("Неизвестный уровень логирования %q, используется info", cfg.Logging.Level)
	}

	logging.Info("Запуск навигационного сервера")

	// === МИР ===
	w := world.NewWorld()
	for i, seed := range []int64{cfg.Server.MapSeed, cfg.Server.MapSeed + 1} {
		l, err := w.AddLayer(cfg.Server.MapWidth, cfg.Server.MapHeight)
		if err != nil {
			logging.Error("Ошибка создания слоя %d: %v", i, err)
			os.Exit(1)
		}
		world.NewGenerator(seed).Generate(l)
	}
	logging.Info("Мир %dx%d, слоёв: %d, seed=%d", cfg.Server.MapWidth, cfg.Server.MapHeight, w.LayerCount(), cfg.Server.MapSeed)

	registry := prometheus.DefaultRegisterer
	searcher := pathfind.NewSearcher(
		pathfind.SettingsFromConfig(cfg.Pathfinding),
		pathfind.WithMetrics(pathfind.NewMetrics(registry)),
		pathfind.WithLogger(logging.GetPathfindLogger()),
	)

	// === ХРАНИЛИЩЕ ===
	store, err := storage.NewMovementStore(cfg.Storage)
	if err != nil {
		logging.Error("Ошибка открытия хранилища: %v", err)
		os.Exit(1)
	}
	store.SetLogger(logging.GetStorageLogger())
	defer store.Close()

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.Events)
	if err != nil {
		logging.Error("Ошибка подключения шины событий: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	listener, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("events"))
	if err != nil {
		logging.Warn("Журнал событий недоступен: %v", err)
	} else {
		defer listener.Unsubscribe()
	}
	exporter := eventbus.NewMetricsExporter(bus, registry)
	exporter.Start(5 * time.Second)
	defer exporter.Stop()

	// === КЕШ ОБЛАСТЕЙ ===
	repo := newCacheRepo(cfg.Cache)
	defer repo.Close()
	regions := cache.NewRegionCache(repo, uuid.NewString(), time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(context.Background(), cfg.Telemetry.ServiceName)
		if err != nil {
			logging.Warn("Трассировка отключена: %v", err)
			cfg.Telemetry.Enabled = false
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	// === СИМУЛЯЦИЯ ===
	sim := app.NewSimulation(w, searcher, cfg.Movement, app.Options{
		Store:   store,
		Regions: regions,
		Bus:     bus,
		Logger:  logging.GetMovementLogger(),
	})
	defer sim.Close()

	// === REST API ===
	serverCfg := api.Config{
		Port:       fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Simulation: sim,
		Tracing:    cfg.Telemetry.Enabled,
		Logger:     logging.GetServerLogger(),
	}
	if cfg.Auth.Enabled {
		tokens, operators, err := newAuth(cfg.Auth)
		if err != nil {
			logging.Error("Ошибка настройки авторизации: %v", err)
			os.Exit(1)
		}
		serverCfg.Tokens = tokens
		serverCfg.Operators = operators
		logging.Info("JWT авторизация включена для оператора %q", cfg.Auth.AdminUser)
	}

	integration := api.NewServerIntegration(api.IntegrationConfig{
		Server: serverCfg,
		Tick:   time.Duration(cfg.Server.TickMillis) * time.Millisecond,
	})
	if err := integration.Start(); err != nil {
		logging.Error("Ошибка запуска REST API: %v", err)
		os.Exit(1)
	}

	logging.Info("Сервер запущен: http://localhost%s", serverCfg.Port)
	logging.Info("   curl http://localhost%s/health", serverCfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("Получен сигнал %v, завершение работы...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := integration.Stop(ctx); err != nil {
		logging.Error("Ошибка остановки REST API: %v", err)
	}

	logging.Info("Сервер остановлен")
}

// newEventBus выбирает JetStream при заданном адресе NATS, иначе in-memory шину
func newEventBus(cfg config.EventsConfig) (eventbus.EventBus, error) {
	url := cfg.GetNATSURL()
	if url == "" {
		logging.Info("Шина событий: in-memory (буфер %d)", cfg.BufferSize)
		return eventbus.NewMemoryBus(cfg.BufferSize), nil
	}

	bus, err := eventbus.NewJetStreamBus(url, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, err
	}
	logging.Info("Шина событий: JetStream %s, поток %s", url, cfg.Stream)
	return bus, nil
}

// newCacheRepo подключает Redis, при ошибке откатывается на кеш в памяти
func newCacheRepo(cfg config.CacheConfig) cache.CacheRepo {
	if cfg.GetRedisURL() == "" {
		return cache.NewMemoryCache()
	}
	repo, err := cache.NewRedisCache(cfg)
	if err != nil {
		logging.Warn("Redis недоступен, кеш областей в памяти: %v", err)
		return cache.NewMemoryCache()
	}
	return repo
}

func newAuth(cfg config.AuthConfig) (*auth.TokenIssuer, *auth.Operators, error) {
	tokens, err := auth.NewTokenIssuer(cfg.GetJWTSecret(), time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		return nil, nil, err
	}
	if cfg.GetJWTSecret() == "" {
		logging.Warn("JWT секрет не задан, токены не переживут перезапуск")
	}

	operators := auth.NewOperators()
	if err := operators.Add(cfg.AdminUser, cfg.GetAdminPassword(), true); err != nil {
		return nil, nil, err
	}
	return tokens, operators, nil
}
