package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oa_client_requests_total",
		Help: "Total number of OA API calls by outcome",
	}, []string{"method", "outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oa_client_request_duration_seconds",
		Help:    "Round-trip time of individual HTTP exchanges with the OA backend",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 10), // 10ms to ~5s
	}, []string{"method"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oa_client_token_refreshes_total",
		Help: "Token refresh calls sent to the OA backend",
	}, []string{"result"})

	Retries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oa_client_request_retries_total",
		Help: "Calls replayed after a successful token refresh",
	})

	SessionTeardowns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oa_client_session_teardowns_total",
		Help: "Sessions ended because a token refresh failed",
	})

	Navigations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oa_client_navigations_total",
		Help: "Route guard decisions by outcome",
	}, []string{"outcome"})
)

// Outcome labels shared by the request pipeline and the router.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// WriteTextfile writes every registered collector in the Prometheus text
// format, suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
