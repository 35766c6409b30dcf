package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks currently open websocket connections
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collabboard_active_connections",
		Help: "Number of open websocket connections.",
	})

	// MessagesTotal counts inbound messages by type
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabboard_messages_total",
		Help: "Inbound client messages by type.",
	}, []string{"type"})

	// DroppedMessagesTotal counts messages dropped before handling
	DroppedMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabboard_dropped_messages_total",
		Help: "Messages dropped before handling (oversized, rate limited).",
	}, []string{"reason"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
