package resilientmaps

import (
	"errors"
	"net/url"
	"sync"
)

// OutputFormat is the fixed response format path segment.
const OutputFormat = "json"

// RequestState is the lifecycle position of a Request. It only moves forward.
type RequestState int

const (
	StateUnvalidated RequestState = iota
	StateValidated
	StateBuilt
)

func (s RequestState) String() string {
	switch s {
	case StateUnvalidated:
		return "unvalidated"
	case StateValidated:
		return "validated"
	case StateBuilt:
		return "built"
	}
	return "unknown"
}

// Params is the read-only view of a request's parameters handed to a Rule.
type Params struct {
	m map[string]string
}

func (p Params) Get(name string) string {
	return p.m[name]
}

func (p Params) Has(name string) bool {
	_, ok := p.m[name]
	return ok
}

func (p Params) Len() int {
	return len(p.m)
}

// Rule checks API-specific constraints (required fields, mutually exclusive
// fields). A non-nil error fails validation.
type Rule func(p Params) error

// Request accumulates the parameters of one API call and walks them through
// Unvalidated -> Validated -> Built. It is consumed by a single execution.
type Request struct {
	mu sync.Mutex

	api     Api
	service string
	rule    Rule

	params   map[string]string
	state    RequestState
	query    string
	consumed bool
}

// NewRequest creates an Unvalidated request for the given category and
// service path segment (e.g. "geocode", "place/details").
func NewRequest(api Api, service string, rule Rule) *Request {
	return &Request{
		api:     api,
		service: service,
		rule:    rule,
		params:  make(map[string]string),
	}
}

func (r *Request) Api() Api {
	return r.api
}

func (r *Request) Service() string {
	return r.service
}

func (r *Request) State() RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Set overwrites the value of a parameter. Only allowed while Unvalidated.
func (r *Request) Set(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateUnvalidated {
		return &Error{Kind: KindRequestLocked, Api: r.api, Message: name}
	}
	r.params[name] = value
	return nil
}

// Del removes a parameter. Only allowed while Unvalidated.
func (r *Request) Del(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateUnvalidated {
		return &Error{Kind: KindRequestLocked, Api: r.api, Message: name}
	}
	delete(r.params, name)
	return nil
}

func (r *Request) Get(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.params[name]
	return v, ok
}

// Validate runs the request's Rule and moves it to Validated. Calling it on a
// Validated or Built request is a no-op.
func (r *Request) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateUnvalidated {
		return nil
	}
	if r.rule != nil {
		if err := r.rule(Params{m: r.params}); err != nil {
			var e *Error
			if errors.As(err, &e) && e.Kind == KindValidation {
				return e
			}
			return &Error{Kind: KindValidation, Api: r.api, Err: err}
		}
	}
	r.state = StateValidated
	return nil
}

// Build serializes the parameters and the credential into the query string.
// Only allowed from Validated.
func (r *Request) Build(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateValidated {
		return newError(KindRequestNotValidated, r.api, nil)
	}
	r.query = r.encode(key)
	r.state = StateBuilt
	return nil
}

// Rebuild re-serializes a Built request and makes it executable again.
func (r *Request) Rebuild(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBuilt {
		return newError(KindQueryNotBuilt, r.api, nil)
	}
	r.query = r.encode(key)
	r.consumed = false
	return nil
}

// Query returns the built query string. It does not change state.
func (r *Request) Query() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBuilt {
		return "", newError(KindQueryNotBuilt, r.api, nil)
	}
	return r.query, nil
}

// URL returns {base}/{service}/json?{query}.
func (r *Request) URL(base string) (string, error) {
	q, err := r.Query()
	if err != nil {
		return "", err
	}
	return base + "/" + r.service + "/" + OutputFormat + "?" + q, nil
}

// consume marks a Built request as taken by an execution.
func (r *Request) consume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBuilt {
		return newError(KindQueryNotBuilt, r.api, nil)
	}
	if r.consumed {
		return newError(KindRequestConsumed, r.api, nil)
	}
	r.consumed = true
	return nil
}

// encode is deterministic: url.Values.Encode sorts by key.
func (r *Request) encode(key string) string {
	v := make(url.Values, len(r.params)+1)
	for name, value := range r.params {
		v.Set(name, value)
	}
	if key != "" {
		v.Set("key", key)
	}
	return v.Encode()
}
