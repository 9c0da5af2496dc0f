package api

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/mmo-miner/internal/logging"
)

// requestLogger пишет каждый HTTP-запрос lobby в компонентный лог.
func requestLogger() gin.HandlerFunc {
	log := logging.GetComponentLogger("rest")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// httpMetrics регистрирует базовые HTTP-метрики lobby API.
//
// Метрики:
// * lobby_http_request_duration_seconds{method,path,status} — histogram
// * lobby_http_request_errors_total{method,path,status} — counter (4xx/5xx)
type httpMetrics struct {
	reqDuration *prometheus.HistogramVec
	reqErrors   *prometheus.CounterVec
}

var (
	httpMetricsInstance *httpMetrics
	httpMetricsOnce     sync.Once
)

// newHTTPMetrics возвращает singleton: регистрация в Prometheus одноразовая.
func newHTTPMetrics() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpMetricsInstance = buildHTTPMetrics()
	})
	return httpMetricsInstance
}

func buildHTTPMetrics() *httpMetrics {
	hm := &httpMetrics{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lobby",
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов lobby API.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "path", "status"}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lobby",
			Name:      "http_request_errors_total",
			Help:      "Запросы lobby API, завершившиеся ошибкой (4xx/5xx).",
		}, []string{"method", "path", "status"}),
	}
	prometheus.MustRegister(hm.reqDuration, hm.reqErrors)
	return hm
}

func (hm *httpMetrics) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path // не-матченные маршруты
		}
		hm.reqDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			hm.reqErrors.WithLabelValues(c.Request.Method, path, status).Inc()
		}
	}
}

// corsMiddleware разрешает браузерным клиентам ходить в lobby API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
