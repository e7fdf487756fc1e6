package resilientmaps_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resilientmaps "github.com/opengovern/resilient-maps"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestRateLimiter_Burst(t *testing.T) {
	clock := newFakeClock()
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiGeocoding: {Requests: 10, Per: time.Second},
	}, clock.Now)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.TryAcquire(resilientmaps.ApiGeocoding), "permit %d", i)
	}
	assert.False(t, rl.TryAcquire(resilientmaps.ApiGeocoding))

	// Unlimited categories are never blocked.
	assert.True(t, rl.TryAcquire(resilientmaps.ApiDirections))
}

func TestRateLimiter_LazyRefill(t *testing.T) {
	clock := newFakeClock()
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiElevation: {Requests: 1, Per: time.Second, Burst: 2},
	}, clock.Now)

	require.True(t, rl.TryAcquire(resilientmaps.ApiElevation))
	require.True(t, rl.TryAcquire(resilientmaps.ApiElevation))
	assert.False(t, rl.TryAcquire(resilientmaps.ApiElevation))

	clock.Advance(500 * time.Millisecond)
	assert.False(t, rl.TryAcquire(resilientmaps.ApiElevation))

	clock.Advance(500 * time.Millisecond)
	assert.True(t, rl.TryAcquire(resilientmaps.ApiElevation))

	// Refill never exceeds capacity.
	clock.Advance(time.Hour)
	info := rl.GetRateLimitInfo(resilientmaps.ApiElevation)
	require.NotNil(t, info)
	assert.Equal(t, 2.0, info.Available)
	assert.Equal(t, 2.0, info.Capacity)
	assert.Equal(t, 1.0, info.PerSecond)
}

func TestRateLimiter_GlobalBucketIsShared(t *testing.T) {
	clock := newFakeClock()
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiAll:    resilientmaps.PerMinute(3),
		resilientmaps.ApiPlaces: resilientmaps.PerMinute(100),
	}, clock.Now)

	for i := 0; i < 3; i++ {
		require.True(t, rl.TryAcquire(resilientmaps.ApiPlaces))
	}
	assert.False(t, rl.TryAcquire(resilientmaps.ApiPlaces))
	assert.False(t, rl.TryAcquire(resilientmaps.ApiGeocoding))

	info := rl.GetRateLimitInfo(resilientmaps.ApiPlaces)
	require.NotNil(t, info)
	assert.Equal(t, 97.0, info.Available)
}

func TestRateLimiter_FailedAcquireConsumesNothing(t *testing.T) {
	clock := newFakeClock()
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiAll:    resilientmaps.PerMinute(10),
		resilientmaps.ApiPlaces: resilientmaps.PerMinute(1),
	}, clock.Now)

	require.True(t, rl.TryAcquire(resilientmaps.ApiPlaces))
	require.False(t, rl.TryAcquire(resilientmaps.ApiPlaces))

	info := rl.GetRateLimitInfo(resilientmaps.ApiAll)
	require.NotNil(t, info)
	assert.Equal(t, 9.0, info.Available)
}

func TestRateLimiter_WaitLowerBound(t *testing.T) {
	// capacity 2, 20 per second: 5 permits need at least (5-2)/20 = 150ms.
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiGeocoding: {Requests: 20, Per: time.Second, Burst: 2},
	}, nil)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, rl.Wait(context.Background(), resilientmaps.ApiGeocoding))
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 145*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiAll: resilientmaps.PerMinute(1),
	}, nil)
	require.True(t, rl.TryAcquire(resilientmaps.ApiTimeZone))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx, resilientmaps.ApiTimeZone)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	// capacity 5, 50 per second: 10 concurrent permits need at least 100ms.
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiAll:        {Requests: 50, Per: time.Second, Burst: 5},
		resilientmaps.ApiDirections: resilientmaps.PerSecond(1000),
	}, nil)

	start := time.Now()
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rl.Wait(context.Background(), resilientmaps.ApiDirections)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 95*time.Millisecond)
}

func TestRateLimiter_SetRateLimit(t *testing.T) {
	rl := resilientmaps.NewRateLimiter(nil, nil)
	assert.Nil(t, rl.GetRateLimitInfo(resilientmaps.ApiGeocoding))

	rl.SetRateLimit(resilientmaps.ApiGeocoding, resilientmaps.PerSecond(50))
	info := rl.GetRateLimitInfo(resilientmaps.ApiGeocoding)
	require.NotNil(t, info)
	assert.Equal(t, 50.0, info.Capacity)

	rl.SetRateLimit(resilientmaps.ApiGeocoding, resilientmaps.RateLimit{})
	assert.Nil(t, rl.GetRateLimitInfo(resilientmaps.ApiGeocoding))
}

func TestRateLimiter_PartialRefillSnapshot(t *testing.T) {
	clock := newFakeClock()
	rl := resilientmaps.NewRateLimiter(map[resilientmaps.Api]resilientmaps.RateLimit{
		resilientmaps.ApiAll:       {Requests: 4, Per: time.Second, Burst: 10},
		resilientmaps.ApiGeocoding: {Requests: 4, Per: time.Second, Burst: 1},
	}, clock.Now)

	require.True(t, rl.TryAcquire(resilientmaps.ApiGeocoding))
	clock.Advance(125 * time.Millisecond)

	info := rl.GetRateLimitInfo(resilientmaps.ApiGeocoding)
	require.NotNil(t, info)
	assert.InDelta(t, 0.5, info.Available, 1e-9)
	assert.Equal(t, 1.0, info.Capacity)
	assert.Equal(t, 4.0, info.PerSecond)

	// The geocoding bucket is short, so the global bucket keeps its token too.
	require.False(t, rl.TryAcquire(resilientmaps.ApiGeocoding))
	global := rl.GetRateLimitInfo(resilientmaps.ApiAll)
	require.NotNil(t, global)
	assert.InDelta(t, 9.5, global.Available, 1e-9)

	clock.Advance(125 * time.Millisecond)
	assert.True(t, rl.TryAcquire(resilientmaps.ApiGeocoding))
}
