package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/rts-pathing/internal/logging"
)

// ServerIntegration управляет жизненным циклом HTTP сервера
// и автоматическим циклом симуляции
type ServerIntegration struct {
	restServer *RestServer
	httpServer *http.Server
	tick       time.Duration
	log        *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// IntegrationConfig содержит конфигурацию для интеграции
type IntegrationConfig struct {
	Server Config
	// Период автоматического цикла, 0 - циклы только через /api/tick
	Tick time.Duration
}

// NewServerIntegration создает REST сервер и обвязку вокруг него
func NewServerIntegration(config IntegrationConfig) *ServerIntegration {
	ctx, cancel := context.WithCancel(context.Background())
	rs := NewRestServer(config.Server)

	return &ServerIntegration{
		restServer: rs,
		tick:       config.Tick,
		log:        rs.log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start запускает REST API сервер и цикл симуляции
func (si *ServerIntegration) Start() error {
	si.log.Info("Запуск REST API сервера на порту %s", si.restServer.port)

	si.httpServer = &http.Server{
		Addr:              si.restServer.port,
		Handler:           si.restServer.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := si.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			si.log.Error("Ошибка REST API сервера: %v", err)
		}
	}()

	if si.tick > 0 {
		si.wg.Add(1)
		go si.tickLoop()
		si.log.Info("Автоматический цикл симуляции: %v", si.tick)
	}

	return nil
}

func (si *ServerIntegration) tickLoop() {
	defer si.wg.Done()

	ticker := time.NewTicker(si.tick)
	defer ticker.Stop()

	for {
		select {
		case <-si.ctx.Done():
			return
		case <-ticker.C:
			stats := si.restServer.sim.Tick()
			if stats.Moved > 0 || stats.Unreachable > 0 || stats.Failed > 0 {
				si.log.Trace("Цикл %d: moved=%d waiting=%d reached=%d unreachable=%d failed=%d",
					si.restServer.sim.Ticks(), stats.Moved, stats.Waiting, stats.Reached, stats.Unreachable, stats.Failed)
			}
		}
	}
}

// Stop останавливает цикл симуляции и HTTP сервер
func (si *ServerIntegration) Stop(ctx context.Context) error {
	si.log.Info("Остановка REST API сервера...")

	si.cancel()
	si.wg.Wait()

	if si.httpServer != nil {
		if err := si.httpServer.Shutdown(ctx); err != nil {
			si.log.Error("Ошибка при остановке HTTP сервера: %v", err)
			return err
		}
	}

	si.log.Info("REST API сервер остановлен")
	return nil
}

// GetRestServer возвращает REST сервер
func (si *ServerIntegration) GetRestServer() *RestServer {
	return si.restServer
}

// IsHealthy проверяет, что интеграция не остановлена
func (si *ServerIntegration) IsHealthy() bool {
	select {
	case <-si.ctx.Done():
		return false
	default:
		return true
	}
}
