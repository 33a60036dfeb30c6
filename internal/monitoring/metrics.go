// Package monitoring registers the Prometheus collectors exposed on the
// metrics port.
package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the service updates.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LockConflicts *prometheus.CounterVec
	BotUpdates    *prometheus.CounterVec
	WSClients     *prometheus.GaugeVec
}

// New registers the collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brigade_http_requests_total",
			Help: "API requests by route, method, status, and tenant.",
		}, []string{"route", "method", "status", "tenant"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brigade_http_request_duration_seconds",
			Help:    "API request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		LockConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brigade_sheet_lock_conflicts_total",
			Help: "Inventory sheet writes rejected because another user held the lock.",
		}, []string{"tenant"}),
		BotUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brigade_bot_updates_total",
			Help: "Telegram webhook updates by tenant and command.",
		}, []string{"tenant", "command"}),
		WSClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "brigade_ws_clients",
			Help: "Connected live-update WebSocket clients by tenant.",
		}, []string{"tenant"}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.LockConflicts, m.BotUpdates, m.WSClients)
	return m
}

// GinMiddleware records request counts and latency. The tenant label is
// whatever the tenant middleware resolved, or "none".
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		tenant := c.GetString("tenantSlug")
		if tenant == "" {
			tenant = "none"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), tenant).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
