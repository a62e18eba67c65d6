package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_http_requests_total",
			Help: "Total number of HTTP requests processed by the notifier.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	pollTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_poll_ticks_total",
			Help: "Total number of poll ticks by loop and result.",
		},
		[]string{"loop", "result"},
	)
	pollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_poll_duration_seconds",
			Help:    "Poll tick latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"loop"},
	)
	fetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_fetch_failures_total",
			Help: "Total number of messaging API fetches that failed during polls.",
		},
		[]string{"loop"},
	)
	unreadTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_unread_messages",
			Help: "Current unread total across all or direct channels.",
		},
		[]string{"scope"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		pollTicksTotal,
		pollDuration,
		fetchFailuresTotal,
		unreadTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObservePoll records one tick of a poll loop.
func ObservePoll(loop string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pollTicksTotal.WithLabelValues(loop, result).Inc()
	pollDuration.WithLabelValues(loop).Observe(time.Since(started).Seconds())
}

func IncFetchFailures(loop string, n int) {
	if n <= 0 {
		return
	}
	fetchFailuresTotal.WithLabelValues(loop).Add(float64(n))
}

func SetUnreadTotals(total, direct int) {
	unreadTotal.WithLabelValues("all").Set(float64(total))
	unreadTotal.WithLabelValues("direct").Set(float64(direct))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
