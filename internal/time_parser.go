// internal/time_parser.go
// ------------------------
// Helpers for turning the time values that show up on the wire into Go values
// and back.
//
// Functions:
// - ParseRetryAfter: Retry-After header (delta seconds, HTTP-date, or "6m0s") to a delay.
// - ParseTimeStr: strings like "1s", "6m0s" into a duration.
// - UnixSeconds: a time.Time as the decimal seconds string the services expect.
package internal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter reads a Retry-After header value. Dates in the past yield a
// zero delay. ok is false when the value cannot be understood.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	if d := ParseTimeStr(v); d > 0 {
		return d, true
	}
	return 0, false
}

// ParseTimeStr converts strings like "1s", "6m0s" into a duration.
func ParseTimeStr(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if strings.HasSuffix(s, "s") && !strings.Contains(s, "m") {
		sec, err := strconv.Atoi(strings.TrimSuffix(s, "s"))
		if err == nil && sec >= 0 {
			return time.Duration(sec) * time.Second
		}
	}

	var minutes, seconds int
	n, err := fmt.Sscanf(s, "%dm%ds", &minutes, &seconds)
	if n == 2 && err == nil && minutes >= 0 && seconds >= 0 {
		return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	}

	return 0
}

// UnixSeconds formats t as seconds since the epoch.
func UnixSeconds(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
