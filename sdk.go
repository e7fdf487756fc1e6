// sdk.go
// ------
// The sdk.go file contains the Client, the shared context every request runs
// through. It is the main entry point for users.
//
// Key functionalities include:
// - Initializing the client with NewClient(apiKey, opts...)
// - Executing requests via client.Execute()
// - Adjusting and inspecting rate limits at runtime
//
// The Client owns one RateLimiter, one Transport and one RequestExecutor and
// is safe for concurrent use.
package resilientmaps

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/opengovern/resilient-maps"

type Client struct {
	mu sync.RWMutex

	key     string
	baseURL string

	httpClient *http.Client
	timeout    time.Duration
	transport  Transport

	limits      map[Api]RateLimit
	rateLimiter *RateLimiter
	retry       RetryConfig
	executor    *RequestExecutor

	logger    zerolog.Logger
	baseLevel zerolog.Level
	debug     bool
	observer  Observer
	tracerP   trace.TracerProvider
	tracer    trace.Tracer
	now       func() time.Time
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		key:      apiKey,
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
		limits:   make(map[Api]RateLimit),
		retry:    DefaultRetryConfig(),
		logger:   zerolog.Nop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewHTTPTransport(c.httpClient, c.timeout)
	}
	if c.tracerP == nil {
		c.tracerP = otel.GetTracerProvider()
	}
	c.tracer = c.tracerP.Tracer(instrumentationName)
	c.baseLevel = c.logger.GetLevel()
	c.rateLimiter = NewRateLimiter(c.limits, time.Now)
	c.executor = NewRequestExecutor(c)
	return c
}

// WithTracerProvider sets the provider spans are created from. Defaults to
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerP = tp
	}
}

// SetDebug lowers the client's log level to debug, or restores the level the
// logger was created with.
func (c *Client) SetDebug(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = enabled
	if enabled {
		c.logger = c.logger.Level(zerolog.DebugLevel)
	} else {
		c.logger = c.logger.Level(c.baseLevel)
	}
}

// Execute validates and builds req when needed, then runs it through the
// retry loop. On success the typed payload has been decoded by parse.
func (c *Client) Execute(ctx context.Context, req *Request, parse EnvelopeParser) (*Result, error) {
	switch req.State() {
	case StateUnvalidated:
		if err := req.Validate(); err != nil {
			return nil, err
		}
		fallthrough
	case StateValidated:
		if err := req.Build(c.key); err != nil {
			return nil, err
		}
	}
	return c.executor.ExecuteWithRetry(ctx, req, parse)
}

// Debug reports whether SetDebug(true) is in effect.
func (c *Client) Debug() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debug
}

// Key returns the credential attached to every built request.
func (c *Client) Key() string {
	return c.key
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Limiter() *RateLimiter {
	return c.rateLimiter
}

// SetRateLimit changes the limit of one category at runtime.
func (c *Client) SetRateLimit(api Api, l RateLimit) {
	c.rateLimiter.SetRateLimit(api, l)
}

// GetRateLimitInfo returns the current bucket state for api, or nil when the
// category is unlimited.
func (c *Client) GetRateLimitInfo(api Api) *RateLimitInfo {
	return c.rateLimiter.GetRateLimitInfo(api)
}

func (c *Client) log() zerolog.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}
