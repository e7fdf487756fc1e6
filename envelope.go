package resilientmaps

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Status is the API-level status string every response body carries.
type Status string

const (
	StatusOK                     Status = "OK"
	StatusZeroResults            Status = "ZERO_RESULTS"
	StatusUnknownError           Status = "UNKNOWN_ERROR"
	StatusOverQueryLimit         Status = "OVER_QUERY_LIMIT"
	StatusOverDailyLimit         Status = "OVER_DAILY_LIMIT"
	StatusRequestDenied          Status = "REQUEST_DENIED"
	StatusInvalidRequest         Status = "INVALID_REQUEST"
	StatusNotFound               Status = "NOT_FOUND"
	StatusMaxWaypointsExceeded   Status = "MAX_WAYPOINTS_EXCEEDED"
	StatusMaxRouteLengthExceeded Status = "MAX_ROUTE_LENGTH_EXCEEDED"
	StatusDataNotAvailable       Status = "DATA_NOT_AVAILABLE"
)

// IsTransient reports whether the status means the same request may succeed
// if sent again. Only UNKNOWN_ERROR qualifies; quota statuses need operator
// action and are not retried.
func (s Status) IsTransient() bool {
	return s == StatusUnknownError
}

// Envelope is the part of a response body common to every service.
type Envelope struct {
	Status       Status
	ErrorMessage string
}

// EnvelopeParser extracts the Envelope from a 2xx body and, as a side effect,
// may decode the body into a typed result. An error means the body is
// malformed.
type EnvelopeParser func(body []byte) (Envelope, error)

var (
	errInvalidJSON   = errors.New("body is not valid JSON")
	errMissingStatus = errors.New("body has no status field")
)

// JSONEnvelope returns a parser that reads the status fields and, when target
// is non-nil, unmarshals the whole body into target.
func JSONEnvelope(target any) EnvelopeParser {
	return func(body []byte) (Envelope, error) {
		if !gjson.ValidBytes(body) {
			return Envelope{}, errInvalidJSON
		}
		res := gjson.GetManyBytes(body, "status", "error_message", "errorMessage")
		if res[0].Type != gjson.String || res[0].Str == "" {
			return Envelope{}, errMissingStatus
		}
		env := Envelope{Status: Status(res[0].Str), ErrorMessage: res[1].Str}
		if env.ErrorMessage == "" {
			env.ErrorMessage = res[2].Str
		}
		if target != nil && env.Status == StatusOK {
			if err := json.Unmarshal(body, target); err != nil {
				return env, err
			}
		}
		return env, nil
	}
}
