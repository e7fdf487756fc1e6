package resilientmaps

import "time"

// Exports for testing.

// NormalizeRetryConfig exports RetryConfig.normalize.
var NormalizeRetryConfig = RetryConfig.normalize

// ScheduleWaits returns the first n waits a fresh schedule for rc produces,
// without sleeping.
func ScheduleWaits(rc RetryConfig, n int) []time.Duration {
	rc = rc.normalize()
	bo := rc.newBackOff()
	out := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, nextWait(bo, rc, 0))
	}
	return out
}
