package resilientmaps

import (
	"net/http"
	"time"

	"github.com/opengovern/resilient-maps/internal"
)

// OutcomeKind is the verdict on one attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTransient
	OutcomePermanent
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	}
	return "unknown"
}

// Outcome is the classification of one attempt. Err is nil for success.
type Outcome struct {
	Kind     OutcomeKind
	Err      *Error
	Envelope Envelope
	// RetryAfter is the server's requested delay, zero when absent.
	RetryAfter time.Duration
}

// Classify turns one attempt's raw result into Success, Transient or
// Permanent. It performs no I/O and does not sleep; now is only used to
// resolve an HTTP-date Retry-After header.
func Classify(api Api, res *RawResponse, transportErr error, parse EnvelopeParser, now time.Time) Outcome {
	if transportErr != nil {
		return Outcome{Kind: OutcomeTransient, Err: newError(KindTransport, api, transportErr)}
	}
	if res == nil {
		return Outcome{Kind: OutcomeTransient, Err: &Error{Kind: KindTransport, Api: api, Message: "no response"}}
	}

	code := res.StatusCode
	switch {
	case code >= 200 && code < 300:
		return classifyBody(api, res, parse)
	case code >= 500 || code == http.StatusTooManyRequests:
		out := Outcome{
			Kind: OutcomeTransient,
			Err:  &Error{Kind: KindTransientRemote, Api: api, HTTPStatus: code, Message: http.StatusText(code)},
		}
		if v, ok := res.Headers["retry-after"]; ok {
			if d, ok := internal.ParseRetryAfter(v, now); ok {
				out.RetryAfter = d
			}
		}
		return out
	default:
		return Outcome{
			Kind: OutcomePermanent,
			Err:  &Error{Kind: KindRemoteRejection, Api: api, HTTPStatus: code, Message: http.StatusText(code)},
		}
	}
}

func classifyBody(api Api, res *RawResponse, parse EnvelopeParser) Outcome {
	if parse == nil {
		parse = JSONEnvelope(nil)
	}
	env, err := parse(res.Body)
	if err != nil {
		return Outcome{
			Kind:     OutcomePermanent,
			Envelope: env,
			Err:      &Error{Kind: KindMalformedResponse, Api: api, HTTPStatus: res.StatusCode, Status: env.Status, Err: err},
		}
	}
	switch {
	case env.Status == StatusOK:
		return Outcome{Kind: OutcomeSuccess, Envelope: env}
	case env.Status.IsTransient():
		return Outcome{
			Kind:     OutcomeTransient,
			Envelope: env,
			Err:      &Error{Kind: KindTransientRemote, Api: api, HTTPStatus: res.StatusCode, Status: env.Status, Message: env.ErrorMessage},
		}
	default:
		return Outcome{
			Kind:     OutcomePermanent,
			Envelope: env,
			Err:      &Error{Kind: KindRemoteRejection, Api: api, HTTPStatus: res.StatusCode, Status: env.Status, Message: env.ErrorMessage},
		}
	}
}
