package resilientmaps

import "time"

// TransportRequest is what a Transport sends: one fully built call.
type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// RawResponse is what a Transport returns. Header names are lower-cased and
// only the first value of each header is kept.
type RawResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Result is a successful execution.
type Result struct {
	Body     []byte
	Envelope Envelope
	Attempts int
	Elapsed  time.Duration
}

// RateLimitInfo is a point-in-time view of one rate limiter bucket.
type RateLimitInfo struct {
	Api       Api     `json:"api"`
	Capacity  float64 `json:"capacity"`
	Available float64 `json:"available"`
	// PerSecond is the refill rate.
	PerSecond float64 `json:"per_second"`
}
