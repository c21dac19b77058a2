package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navboard",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "navboard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "navboard",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Waypoint command metrics
	WaypointCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navboard",
		Subsystem: "waypoints",
		Name:      "commands_total",
		Help:      "Waypoint commands received, by op and outcome",
	}, []string{"op", "status"})

	ActiveWaypoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "navboard",
		Subsystem: "waypoints",
		Name:      "active",
		Help:      "Number of waypoints in the active list",
	})

	MissionOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navboard",
		Subsystem: "missions",
		Name:      "operations_total",
		Help:      "Mission save/load/export operations, by outcome",
	}, []string{"op", "status"})

	PoseReports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "navboard",
		Subsystem: "robot",
		Name:      "pose_reports_total",
		Help:      "Robot pose reports ingested",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "navboard",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navboard",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navboard",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	DBPoolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "navboard",
		Subsystem: "db",
		Name:      "pool_conns",
		Help:      "Database pool connections by state (total, acquired, idle)",
	}, []string{"state"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat reported as gauges.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConns.WithLabelValues("total").Set(float64(s.TotalConns()))
	DBPoolConns.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))
	DBPoolConns.WithLabelValues("idle").Set(float64(s.IdleConns()))
}
