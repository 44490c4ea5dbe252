// Package metrics exposes Prometheus metrics for the HTTP API, the database
// pool and realtime delivery on a private registry.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodieconnect"

type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	pushes   *prometheus.CounterVec
}

// New registers the runtime, process and request collectors. db may be nil.
func New(db *sql.DB) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "Realtime events pushed, by event name and outcome.",
		}, []string{"event", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.pushes,
	)
	if db != nil {
		m.registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
	}
	return m
}

// OnlineUsers reports the number of connected users as a gauge.
func (m *Metrics) OnlineUsers(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_online_users",
		Help:      "Users with at least one live websocket connection.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Pusher matches notify.Pusher.
type Pusher interface {
	Push(ctx context.Context, userIDs []string, event string, data any) error
}

type countingPusher struct {
	next   Pusher
	counts *prometheus.CounterVec
}

func (p countingPusher) Push(ctx context.Context, userIDs []string, event string, data any) error {
	err := p.next.Push(ctx, userIDs, event, data)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.counts.WithLabelValues(event, outcome).Inc()
	return err
}

// CountPushes wraps next so every push is counted.
func (m *Metrics) CountPushes(next Pusher) Pusher {
	return countingPusher{next: next, counts: m.pushes}
}
