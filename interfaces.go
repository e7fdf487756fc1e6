package resilientmaps

import (
	"context"
	"time"
)

// Transport performs exactly one network round trip. It must not retry;
// retries belong to the RequestExecutor.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*RawResponse, error)
}

// Observer receives per-attempt and per-execution events.
type Observer interface {
	// ObserveAttempt is called after every classified attempt.
	ObserveAttempt(api Api, attempt int, outcome OutcomeKind, latency time.Duration)
	// ObserveResult is called once per execution with the final error (nil on success).
	ObserveResult(api Api, attempts int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(Api, int, OutcomeKind, time.Duration) {}
func (nopObserver) ObserveResult(Api, int, time.Duration, error)         {}
