// Package metrics exposes Prometheus collectors for award operations and
// HTTP traffic.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/extrapoints/internal/ledger"
)

const namespace = "extrapoints"

// Outcome labels.
const (
	OutcomeOK             = "ok"
	OutcomeNotFound       = "not_found"
	OutcomeWriteError     = "write_error"
	OutcomeReadError      = "read_error"
	OutcomeAggregateError = "aggregate_error"
	OutcomeError          = "error"
)

// Metrics holds the collectors. Create it once per registry.
type Metrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Award operations by operation, final stage and outcome.",
		}, []string{"operation", "stage", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of award operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.operations, m.operationDuration, m.requests, m.requestDuration)
	return m
}

// ObserveOperation records one finished service operation.
func (m *Metrics) ObserveOperation(op, stage string, err error, elapsed time.Duration) {
	m.operations.WithLabelValues(op, stage, Outcome(err)).Inc()
	m.operationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Outcome maps an error from the ledger taxonomy to a label value.
func Outcome(err error) string {
	var agg *ledger.AggregateError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &agg):
		return OutcomeAggregateError
	case errors.Is(err, ledger.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ledger.ErrStoreWrite):
		return OutcomeWriteError
	case errors.Is(err, ledger.ErrStoreRead):
		return OutcomeReadError
	default:
		return OutcomeError
	}
}
