package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginURLsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fbgateway_login_urls_issued_total",
		Help: "Total number of Facebook login URLs issued",
	})

	callbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fbgateway_oauth_callbacks_total",
		Help: "OAuth callbacks handled, by outcome",
	}, []string{"outcome"})

	graphRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fbgateway_graph_requests_total",
		Help: "Graph listing calls, by object kind and outcome",
	}, []string{"object", "outcome"})

	graphPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fbgateway_graph_pages_fetched_total",
		Help: "Individual Graph pages fetched, by object kind",
	}, []string{"object"})

	stateConsumeDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fbgateway_oauth_state_consume_duration_ms",
		Help:    "Latency of OAuth state consumption in milliseconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	}, []string{"store"})
)

// Callback outcomes. They follow the authorization attempt's terminal states.
const (
	OutcomeExchanged      = "exchanged"
	OutcomeRejected       = "rejected"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeInvalidState   = "invalid_state"
	OutcomeExchangeFailed = "exchange_failed"
	OutcomeUpstreamFailed = "upstream_failed"
	OutcomeInternalError  = "internal_error"
)

// Graph read outcomes.
const (
	OutcomeOK                = "ok"
	OutcomeInvalidCredential = "invalid_credential"
	OutcomeTimeout           = "timeout"
)

func IncLoginURLIssued() {
	loginURLsIssued.Inc()
}

func IncCallback(outcome string) {
	callbacks.WithLabelValues(outcome).Inc()
}

func IncGraphRequest(object, outcome string) {
	graphRequests.WithLabelValues(object, outcome).Inc()
}

func IncGraphPage(object string) {
	graphPages.WithLabelValues(object).Inc()
}

// ObserveStateConsume records how long a state lookup took; use with defer.
func ObserveStateConsume(store string, start time.Time) {
	stateConsumeDurationMs.WithLabelValues(store).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
