package resilientmaps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// HTTPTransport is the default Transport. It sends one request over an
// *http.Client whose RoundTripper is instrumented with otelhttp.
type HTTPTransport struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPTransport wraps hc (or a fresh client when nil). timeout <= 0 leaves
// the round trip bounded only by the caller's context.
func NewHTTPTransport(hc *http.Client, timeout time.Duration) *HTTPTransport {
	base := http.DefaultTransport
	if hc != nil && hc.Transport != nil {
		base = hc.Transport
	}
	client := &http.Client{
		Transport: otelhttp.NewTransport(base),
	}
	if hc != nil {
		client.CheckRedirect = hc.CheckRedirect
		client.Jar = hc.Jar
	}
	return &HTTPTransport{
		client:    client,
		timeout:   timeout,
		userAgent: "resilient-maps-go",
	}
}

func (t *HTTPTransport) Do(ctx context.Context, req *TransportRequest) (*RawResponse, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       data,
	}, nil
}
