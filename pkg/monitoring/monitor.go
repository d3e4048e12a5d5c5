package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	DraftSessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "draft_sessions_open",
			Help: "Number of live course authoring sessions",
		},
	)

	SnapshotRestores = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "draft_snapshot_restores_total",
			Help: "Draft snapshots accepted by instructors on resume",
		},
	)

	SnapshotDiscards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "draft_snapshot_discards_total",
			Help: "Draft snapshots discarded via start-fresh",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DraftSessionsOpen)
	prometheus.MustRegister(SnapshotRestores)
	prometheus.MustRegister(SnapshotDiscards)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
