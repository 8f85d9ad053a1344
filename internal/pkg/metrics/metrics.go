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
		Namespace: "stepwise",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stepwise",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stepwise",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Navigation metrics
	SamplesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "samples_ingested_total",
		Help:      "Total sensor samples ingested",
	}, []string{"source"})

	SamplesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "samples_rejected_total",
		Help:      "Total sensor samples rejected by validation",
	}, []string{"source"})

	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "events_emitted_total",
		Help:      "Total navigation events emitted",
	}, []string{"kind"})

	GeofenceAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "geofence_alerts_total",
		Help:      "Total geofence alerts",
	}, []string{"polygon", "direction"})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "ingest_duration_seconds",
		Help:      "Time to process one sample through a session",
		Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "active_sessions",
		Help:      "Navigation sessions currently registered",
	})

	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "sessions_completed_total",
		Help:      "Total sessions that reached the last waypoint",
	})

	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "sessions_expired_total",
		Help:      "Total sessions removed by the idle sweep",
	})

	EscalationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "navigation",
		Name:      "escalation_errors_total",
		Help:      "Total safety escalations that could not be started",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stepwise",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"tier"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stepwise",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stepwise",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stepwise",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// fiber resolves the route pattern (/v1/sessions/:id), which keeps
		// label cardinality bounded
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

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// accepts *pgxpool.Stat without importing pgxpool here
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
