// rate_limiter.go
// ----------------
// This file defines the RateLimiter type, a set of token buckets keyed by Api.
// ApiAll is the wildcard bucket every request is also charged against.
//
// Responsibilities:
// - Lazily refilling each bucket from elapsed time (rate.Limiter keeps no
//   background goroutine).
// - Granting a permit only when every touched bucket holds a token, then
//   taking one from each while still holding their locks.
// - Sleeping, cancellably, until the earliest moment a permit could be granted.
// - Exposing per-bucket snapshots for monitoring.
//
// Buckets are always locked in ascending Api order.
package resilientmaps

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit is a sustained rate of Requests per Per, with a burst capacity.
// Burst defaults to Requests when zero.
type RateLimit struct {
	Requests int
	Per      time.Duration
	Burst    int
}

// PerSecond is a convenience constructor for n requests per second.
func PerSecond(n int) RateLimit {
	return RateLimit{Requests: n, Per: time.Second}
}

// PerMinute is a convenience constructor for n requests per minute.
func PerMinute(n int) RateLimit {
	return RateLimit{Requests: n, Per: time.Minute}
}

func (l RateLimit) valid() bool {
	return l.Requests > 0 && l.Per > 0
}

func (l RateLimit) limit() rate.Limit {
	return rate.Limit(float64(l.Requests) / l.Per.Seconds())
}

func (l RateLimit) burst() int {
	if l.Burst > 0 {
		return l.Burst
	}
	return l.Requests
}

// bucket guards a rate.Limiter so that several buckets can be checked and
// charged as one step.
type bucket struct {
	mu  sync.Mutex
	api Api
	lim *rate.Limiter
}

// wait returns how long until one token is available at now. b.mu must be
// held.
func (b *bucket) wait(now time.Time) time.Duration {
	tokens := b.lim.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	secs := (1 - tokens) / float64(b.lim.Limit())
	return time.Duration(math.Ceil(secs * float64(time.Second)))
}

type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[Api]*bucket
	now     func() time.Time
}

// NewRateLimiter creates a limiter with the given per-category limits.
// Categories without an entry are unlimited. now defaults to time.Now; Wait
// sleeps in real time, so a replacement clock must keep pace with it.
func NewRateLimiter(limits map[Api]RateLimit, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	r := &RateLimiter{
		buckets: make(map[Api]*bucket),
		now:     now,
	}
	for api, l := range limits {
		r.SetRateLimit(api, l)
	}
	return r
}

// SetRateLimit installs or replaces the limit for one category. The new
// bucket starts full. A zero RateLimit removes the limit.
func (r *RateLimiter) SetRateLimit(api Api, l RateLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !l.valid() {
		delete(r.buckets, api)
		return
	}
	r.buckets[api] = &bucket{
		api: api,
		lim: rate.NewLimiter(l.limit(), l.burst()),
	}
}

// Wait blocks until a permit is available for every given category and for
// ApiAll, then consumes one token from each. It returns ctx.Err() if the
// context ends first; in that case nothing is consumed.
func (r *RateLimiter) Wait(ctx context.Context, apis ...Api) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delay := r.tryAcquire(apis)
		if delay == 0 {
			return nil
		}
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}
}

// TryAcquire consumes a permit if one is available right now. It never blocks.
func (r *RateLimiter) TryAcquire(apis ...Api) bool {
	return r.tryAcquire(apis) == 0
}

// tryAcquire returns 0 when a permit was granted, otherwise the time until
// every touched bucket would hold a token.
func (r *RateLimiter) tryAcquire(apis []Api) time.Duration {
	buckets := r.bucketsFor(apis)
	if len(buckets) == 0 {
		return 0
	}

	for _, b := range buckets {
		b.mu.Lock()
	}
	defer func() {
		for i := len(buckets) - 1; i >= 0; i-- {
			buckets[i].mu.Unlock()
		}
	}()

	now := r.now()
	var delay time.Duration
	for _, b := range buckets {
		if d := b.wait(now); d > delay {
			delay = d
		}
	}
	if delay > 0 {
		return delay
	}
	for _, b := range buckets {
		b.lim.AllowN(now, 1)
	}
	return 0
}

// bucketsFor returns the configured buckets for apis plus ApiAll, deduplicated
// and sorted by Api.
func (r *RateLimiter) bucketsFor(apis []Api) []*bucket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Api]bool, len(apis)+1)
	out := make([]*bucket, 0, len(apis)+1)
	for _, api := range append([]Api{ApiAll}, apis...) {
		if seen[api] {
			continue
		}
		seen[api] = true
		if b, ok := r.buckets[api]; ok {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].api < out[j].api })
	return out
}

// GetRateLimitInfo returns a refilled snapshot of one bucket, or nil when the
// category is unlimited.
func (r *RateLimiter) GetRateLimitInfo(api Api) *RateLimitInfo {
	r.mu.RLock()
	b, ok := r.buckets[api]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return &RateLimitInfo{
		Api:       api,
		Capacity:  float64(b.lim.Burst()),
		Available: b.lim.TokensAt(r.now()),
		PerSecond: float64(b.lim.Limit()),
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
