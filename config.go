// config.go
// ----------
// This file defines RetryConfig, the exponential backoff schedule used by the
// RequestExecutor, and the functional options accepted by NewClient.
//
// The schedule defaults mirror backoff.NewExponentialBackOff: 500ms initial
// interval, x1.5 multiplier, 0.5 jitter, 60s interval cap, 15m total.
package resilientmaps

import (
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the root every service path is appended to.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// DefaultTimeout bounds a single round trip of the default transport.
const DefaultTimeout = 30 * time.Second

// RetryConfig describes the backoff schedule. Unset fields take their value
// from DefaultRetryConfig, except RandomizationFactor where zero means no
// jitter.
type RetryConfig struct {
	InitialInterval     time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxInterval         time.Duration
	// MaxElapsedTime bounds the whole retry loop. When both it and
	// MaxRetries are zero the default bound applies.
	MaxElapsedTime time.Duration
	// MaxRetries caps the number of retries after the first attempt. Zero
	// means only MaxElapsedTime applies.
	MaxRetries int
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     backoff.DefaultInitialInterval,
		Multiplier:          backoff.DefaultMultiplier,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		MaxInterval:         backoff.DefaultMaxInterval,
		MaxElapsedTime:      backoff.DefaultMaxElapsedTime,
	}
}

// normalize fills unset or out-of-range fields so that every schedule grows
// and every retry loop ends.
func (c RetryConfig) normalize() RetryConfig {
	d := DefaultRetryConfig()
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	if c.RandomizationFactor < 0 {
		c.RandomizationFactor = 0
	}
	if c.RandomizationFactor > 1 {
		c.RandomizationFactor = 1
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = c.InitialInterval
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxElapsedTime < 0 {
		c.MaxElapsedTime = 0
	}
	if c.MaxElapsedTime == 0 && c.MaxRetries == 0 {
		c.MaxElapsedTime = d.MaxElapsedTime
	}
	return c
}

// newBackOff builds a fresh, reset schedule. Each execution gets its own.
func (c RetryConfig) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = c.RandomizationFactor
	b.MaxInterval = c.MaxInterval
	b.MaxElapsedTime = c.MaxElapsedTime
	b.Reset()
	return b
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHTTPClient wraps hc in the default transport. Its RoundTripper is used
// as the base of the otelhttp transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-round-trip timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRateLimit limits one category. Use ApiAll for the global limit.
func WithRateLimit(api Api, l RateLimit) Option {
	return func(c *Client) {
		c.limits[api] = l
	}
}

// WithRetryConfig sets the backoff schedule. The config is normalized, see
// RetryConfig.
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) {
		c.retry = rc.normalize()
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock replaces time.Now for reported latencies and for resolving
// HTTP-date Retry-After hints. Rate limiting and the backoff schedule always
// follow the wall clock, because they sleep in real time.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}
