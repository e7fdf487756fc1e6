package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	resilientmaps "github.com/opengovern/resilient-maps"
)

const namespace = "maps_client"

// Recorder is a Prometheus-backed resilientmaps.Observer.
type Recorder struct {
	attempts        *prometheus.CounterVec
	attemptLatency  *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
}

var _ resilientmaps.Observer = (*Recorder)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Network attempts by api and classified outcome",
			},
			[]string{"api", "outcome"},
		),
		attemptLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Duration of single network attempts by api",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"api"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Executions by api and final result",
			},
			[]string{"api", "result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of whole executions, retries and waits included",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"api"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Attempts beyond the first, by api",
			},
			[]string{"api"},
		),
	}

	for _, c := range []prometheus.Collector{r.attempts, r.attemptLatency, r.requests, r.requestDuration, r.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveAttempt(api resilientmaps.Api, attempt int, outcome resilientmaps.OutcomeKind, latency time.Duration) {
	r.attempts.WithLabelValues(api.String(), outcome.String()).Inc()
	r.attemptLatency.WithLabelValues(api.String()).Observe(latency.Seconds())
	if attempt > 1 {
		r.retries.WithLabelValues(api.String()).Inc()
	}
}

func (r *Recorder) ObserveResult(api resilientmaps.Api, _ int, elapsed time.Duration, err error) {
	r.requests.WithLabelValues(api.String(), resultLabel(err)).Inc()
	r.requestDuration.WithLabelValues(api.String()).Observe(elapsed.Seconds())
}

// resultLabel maps an execution error onto a small fixed label set.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, resilientmaps.ErrRetryBudgetExhausted):
		return "exhausted"
	case errors.Is(err, resilientmaps.ErrCancelled):
		return "cancelled"
	case errors.Is(err, resilientmaps.ErrRemoteRejection), errors.Is(err, resilientmaps.ErrMalformedResponse):
		return "permanent"
	}
	return "error"
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
