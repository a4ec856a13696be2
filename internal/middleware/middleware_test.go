package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(r, registry)

	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/error", func(c *gin.Context) { c.JSON(500, gin.H{"error": "test error"}) })

	for _, path := range []string{"/ok", "/error", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(promMw.reqErrors.WithLabelValues("GET", "/error", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(promMw.reqErrors.WithLabelValues("GET", "unmatched", "404")),
		"Неизвестные URL сводятся к одной метке")
	assert.Equal(t, 0.0, testutil.ToFloat64(promMw.reqInflight))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, 200, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "test_http_request_duration_seconds"))
}

func TestPrometheusMiddleware_ReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := NewPrometheusMiddleware("test", registry)
	second := NewPrometheusMiddleware("test", registry)
	assert.Same(t, first.reqErrors, second.reqErrors, "Повторная регистрация отдаёт существующий коллектор")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("http", &buf, logging.DEBUG)).Handler())

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(204)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "/ping")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", seen, "Входящий ID сохраняется")
}
