package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yatube_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yatube_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

// Metrics 按路由模板记录计数与耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		activeConnections.Inc()
		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(path))

		c.Next()

		timer.ObserveDuration()
		activeConnections.Dec()
		httpRequestsTotal.WithLabelValues(path, c.Request.Method,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}
