package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartguys"

// Metrics хранит Prometheus-метрики бота
type Metrics struct {
	EventsProcessed *prometheus.CounterVec
	EventDuration   *prometheus.HistogramVec
	TimeoutsFired   prometheus.Counter
	GamesFinished   *prometheus.CounterVec
	PendingTimers   prometheus.Gauge
	UpdatesDropped  prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	FeedClients     prometheus.Gauge
}

// New регистрирует метрики в reg. Для тестов передается prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "events_total",
				Help:      "Total number of processed game events",
			},
			[]string{"kind", "outcome"},
		),
		EventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "event_duration_seconds",
				Help:      "Game event handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		TimeoutsFired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "timeouts_fired_total",
				Help:      "Answer timers that fired",
			},
		),
		GamesFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "games_finished_total",
				Help:      "Finished games by outcome",
			},
			[]string{"outcome"},
		),
		PendingTimers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "pending_timers",
				Help:      "Answer timers currently armed",
			},
		),
		UpdatesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "telegram",
				Name:      "duplicate_updates_total",
				Help:      "Redelivered Telegram updates dropped before dispatch",
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Admin API requests",
			},
			[]string{"method", "route", "status"},
		),
		FeedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "clients",
				Help:      "Connected live feed subscribers",
			},
		),
	}
}

// ObserveEvent фиксирует обработку одного события движка
func (m *Metrics) ObserveEvent(kind string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsProcessed.WithLabelValues(kind, outcome).Inc()
	m.EventDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// GinMiddleware считает запросы админского API
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
