package pathfind

import (
	"errors"

	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - prometheus-метрики поиска пути
type Metrics struct {
	outcomes   *prometheus.CounterVec
	expansions prometheus.Histogram
	fallbacks  *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// При reg == nil метрики работают, но не экспортируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathfind",
			Name:      "searches_total",
			Help:      "Число поисков пути по итогам.",
		}, []string{"outcome"}),
		expansions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pathfind",
			Name:      "expanded_nodes",
			Help:      "Сколько узлов раскрыл один поиск.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathfind",
			Name:      "connectivity_checks_total",
			Help:      "Проверки связности после прерванного поиска.",
		}, []string{"connected"}),
	}

	if reg != nil {
		m.outcomes = register(reg, m.outcomes)
		m.expansions = register(reg, m.expansions)
		m.fallbacks = register(reg, m.fallbacks)
	}
	return m
}

// register регистрирует коллектор, а при повторной регистрации
// возвращает уже зарегистрированный, чтобы значения попадали в экспорт
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	logging.Warn("Не удалось зарегистрировать метрику: %v", err)
	return c
}

func (m *Metrics) observe(p *Path) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(p.Outcome.String()).Inc()
	m.expansions.Observe(float64(p.Expanded))
}

func (m *Metrics) observeFallback(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.fallbacks.WithLabelValues("true").Inc()
	} else {
		m.fallbacks.WithLabelValues("false").Inc()
	}
}
