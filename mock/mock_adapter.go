package mock

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	resilientmaps "github.com/opengovern/resilient-maps"
)

const (
	OKBody           = `{"status":"OK","results":[]}`
	UnknownErrorBody = `{"status":"UNKNOWN_ERROR","error_message":"server error, try again"}`
	DeniedBody       = `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`
	RateLimitedBody  = `{"error_message":"Rate limited","status":"OVER_QUERY_LIMIT"}`
)

// ErrConnection is what a Step with Fail set returns.
var ErrConnection = errors.New("mock: connection refused")

// Step is one scripted reply.
type Step struct {
	StatusCode int
	Headers    map[string]string
	Body       string
	// Fail makes the step a transport-level failure.
	Fail bool
	// Delay is waited (cancellably) before replying.
	Delay time.Duration
}

// Call records one request the transport received.
type Call struct {
	URL string
	At  time.Time
}

// MockTransport is a scripted resilientmaps.Transport. Steps are replayed in
// order; once they run out, the last one repeats. Without steps it answers
// 200 with Body (OKBody by default), subject to the 429 switches.
type MockTransport struct {
	RequestsUntilRateLimit int  // How many requests until we start answering 429
	ShouldReturn429Always  bool // If true, always return 429
	RetryAfter             string

	Steps []Step
	Body  string

	mu    sync.Mutex
	calls []Call
}

var _ resilientmaps.Transport = (*MockTransport)(nil)

// Script returns a transport replaying steps.
func Script(steps ...Step) *MockTransport {
	return &MockTransport{Steps: steps}
}

// OK is a 200 step with body.
func OK(body string) Step {
	return Step{StatusCode: http.StatusOK, Body: body}
}

// Status is a step returning an HTTP status with an empty JSON body.
func Status(code int) Step {
	return Step{StatusCode: code, Body: `{}`}
}

// Fail is a transport-failure step.
func Fail() Step {
	return Step{Fail: true}
}

func (m *MockTransport) Do(ctx context.Context, req *resilientmaps.TransportRequest) (*resilientmaps.RawResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{URL: req.URL, At: time.Now()})
	n := len(m.calls)
	step := m.next(n)
	m.mu.Unlock()

	if step.Delay > 0 {
		t := time.NewTimer(step.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if step.Fail {
		return nil, ErrConnection
	}

	headers := make(map[string]string, len(step.Headers))
	for k, v := range step.Headers {
		headers[k] = v
	}
	return &resilientmaps.RawResponse{
		StatusCode: step.StatusCode,
		Headers:    headers,
		Body:       []byte(step.Body),
	}, nil
}

// next picks the reply for the n-th call. m.mu must be held.
func (m *MockTransport) next(n int) Step {
	if m.ShouldReturn429Always || (m.RequestsUntilRateLimit > 0 && n > m.RequestsUntilRateLimit) {
		s := Step{StatusCode: http.StatusTooManyRequests, Body: RateLimitedBody}
		if m.RetryAfter != "" {
			s.Headers = map[string]string{"retry-after": m.RetryAfter}
		}
		return s
	}
	if len(m.Steps) > 0 {
		if n > len(m.Steps) {
			return m.Steps[len(m.Steps)-1]
		}
		return m.Steps[n-1]
	}
	body := m.Body
	if body == "" {
		body = OKBody
	}
	return OK(body)
}

// Calls returns a copy of the received requests.
func (m *MockTransport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Gaps returns the time between consecutive calls.
func (m *MockTransport) Gaps() []time.Duration {
	calls := m.Calls()
	if len(calls) < 2 {
		return nil
	}
	out := make([]time.Duration, 0, len(calls)-1)
	for i := 1; i < len(calls); i++ {
		out = append(out, calls[i].At.Sub(calls[i-1].At))
	}
	return out
}
