package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"delta seconds", "3", 3 * time.Second, true},
		{"zero seconds", "0", 0, true},
		{"padded", "  10 ", 10 * time.Second, true},
		{"http date", "Fri, 01 Mar 2024 12:00:05 GMT", 5 * time.Second, true},
		{"date in the past", "Fri, 01 Mar 2024 11:59:00 GMT", 0, true},
		{"go style", "1m30s", 90 * time.Second, true},
		{"seconds suffix", "7s", 7 * time.Second, true},
		{"negative", "-4", 0, false},
		{"empty", "", 0, false},
		{"garbage", "soon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tt.value, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeStr(t *testing.T) {
	assert.Equal(t, time.Second, ParseTimeStr("1s"))
	assert.Equal(t, 6*time.Minute, ParseTimeStr("6m0s"))
	assert.Equal(t, time.Duration(0), ParseTimeStr("abc"))
	assert.Equal(t, time.Duration(0), ParseTimeStr(""))
}

func TestUnixSeconds(t *testing.T) {
	assert.Equal(t, "1331161200", UnixSeconds(time.Unix(1331161200, 0)))
}
