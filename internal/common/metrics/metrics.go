// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_polls_total",
			Help: "Total number of order feed poll ticks",
		},
		[]string{"outcome"},
	)

	FeedNewOrdersDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_new_orders_detected_total",
			Help: "Total number of newly arrived orders detected by the poller",
		},
	)

	FeedHealth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_health",
			Help: "Connection health signal: 0=error, 1=checking, 2=connected",
		},
	)

	AlertsPlayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_played_total",
			Help: "Total number of audible alerts requested",
		},
		[]string{"muted"},
	)

	TransitionsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_transitions_total",
			Help: "Total number of status transitions committed to the backend",
		},
		[]string{"target", "origin", "outcome"},
	)

	PushesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushes_received_total",
			Help: "Total number of push payloads received",
		},
		[]string{"foreground"},
	)
)
