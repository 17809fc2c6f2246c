package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled doorbell presses by response status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorbell_requests_total",
			Help: "Total number of doorbell requests handled",
		},
		[]string{"status"},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doorbell_store_errors_total",
			Help: "Total number of failed record store writes",
		},
	)

	PublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doorbell_publish_errors_total",
			Help: "Total number of failed event bus publishes",
		},
	)

	HandlerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "doorbell_handler_duration_seconds",
			Help:    "Duration of doorbell request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
