package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DeviceDataOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_data_operations_total",
			Help: "Device data operations by kind and outcome.",
		},
		[]string{"op", "outcome"},
	)

	TranscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcriptions_total",
			Help: "Audio transcription attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// MustRegister attaches the service label at registration time so the
// collectors themselves stay usable before (and without) registration.
func MustRegister(serviceName string) {
	prometheus.WrapRegistererWith(
		prometheus.Labels{"service": serviceName},
		prometheus.DefaultRegisterer,
	).MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		DeviceDataOpsTotal,
		TranscriptionsTotal,
	)
}
