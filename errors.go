// errors.go
// ---------
// Every failure the client surfaces is an *Error carrying one Kind from a closed
// set. Callers branch with errors.Is against the Err* sentinels below; the
// underlying transport or decoder error stays reachable through Unwrap.
//
// Lifecycle and validation kinds are caller bugs and are never retried.
// Transport and TransientRemote are retry candidates; RemoteRejection and
// MalformedResponse are permanent. RetryBudgetExhausted wraps the last
// transient error, Cancelled wraps the context error.
package resilientmaps

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindRequestNotValidated
	KindQueryNotBuilt
	KindRequestLocked
	KindRequestConsumed
	KindTransport
	KindRemoteRejection
	KindTransientRemote
	KindMalformedResponse
	KindRetryBudgetExhausted
	KindCancelled
)

var (
	ErrValidation           = errors.New("request validation failed")
	ErrRequestNotValidated  = errors.New("request must be validated before it is built")
	ErrQueryNotBuilt        = errors.New("query string must be built before the request is sent")
	ErrRequestLocked        = errors.New("request parameters can only be set before validation")
	ErrRequestConsumed      = errors.New("request was already executed; rebuild it to send again")
	ErrTransport            = errors.New("transport failure")
	ErrRemoteRejection      = errors.New("request rejected by the service")
	ErrTransientRemote      = errors.New("service temporarily unavailable")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
	ErrCancelled            = errors.New("request cancelled or timed out")
)

var kindSentinels = map[Kind]error{
	KindValidation:           ErrValidation,
	KindRequestNotValidated:  ErrRequestNotValidated,
	KindQueryNotBuilt:        ErrQueryNotBuilt,
	KindRequestLocked:        ErrRequestLocked,
	KindRequestConsumed:      ErrRequestConsumed,
	KindTransport:            ErrTransport,
	KindRemoteRejection:      ErrRemoteRejection,
	KindTransientRemote:      ErrTransientRemote,
	KindMalformedResponse:    ErrMalformedResponse,
	KindRetryBudgetExhausted: ErrRetryBudgetExhausted,
	KindCancelled:            ErrCancelled,
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRequestNotValidated:
		return "request-not-validated"
	case KindQueryNotBuilt:
		return "query-not-built"
	case KindRequestLocked:
		return "request-locked"
	case KindRequestConsumed:
		return "request-consumed"
	case KindTransport:
		return "transport"
	case KindRemoteRejection:
		return "remote-rejection"
	case KindTransientRemote:
		return "transient-remote"
	case KindMalformedResponse:
		return "malformed-response"
	case KindRetryBudgetExhausted:
		return "retry-budget-exhausted"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Error is the single error type returned by the client.
type Error struct {
	Kind Kind
	Api  Api

	// HTTPStatus is set when a response was received.
	HTTPStatus int
	// Status is the API-level status embedded in the response body, if any.
	Status Status
	// Message is a human readable detail, typically the service's error_message.
	Message string
	// Attempts is the number of network attempts made before the error surfaced.
	Attempts int

	// Err is the underlying cause (transport error, decoder error, last
	// transient error, context error).
	Err error
}

var _ error = &Error{}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("google maps ")
	b.WriteString(e.Api.String())
	b.WriteString(": ")
	if s, ok := kindSentinels[e.Kind]; ok {
		b.WriteString(s.Error())
	} else {
		b.WriteString("unknown error")
	}
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (http %d)", e.HTTPStatus)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " (status %s)", e.Status)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// Retryable reports whether resubmitting the identical request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindTransientRemote
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is a transient failure. An exhausted retry
// budget is not retryable by the caller's own loop: the client already tried.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

func newError(kind Kind, api Api, err error) *Error {
	return &Error{Kind: kind, Api: api, Err: err}
}

// Invalid builds a validation error for api. Adapters use it for setter
// arguments that can be rejected before Validate runs.
func Invalid(api Api, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Api: api, Message: fmt.Sprintf(format, args...)}
}
