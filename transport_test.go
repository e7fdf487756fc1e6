package resilientmaps_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resilientmaps "github.com/opengovern/resilient-maps"
)

func TestHTTPTransport_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/geocode/json", r.URL.Path)
		w.Header().Set("Retry-After", "3")
		w.Header().Add("X-Multi", "first")
		w.Header().Add("X-Multi", "second")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"UNKNOWN_ERROR"}`)
	}))
	defer srv.Close()

	tr := resilientmaps.NewHTTPTransport(nil, time.Second)
	res, err := tr.Do(context.Background(), &resilientmaps.TransportRequest{URL: srv.URL + "/geocode/json?address=x"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "3", res.Headers["retry-after"])
	assert.Equal(t, "first", res.Headers["x-multi"])
	assert.JSONEq(t, `{"status":"UNKNOWN_ERROR"}`, string(res.Body))
}

func TestHTTPTransport_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := resilientmaps.NewHTTPTransport(nil, time.Second)
	_, err := tr.Do(context.Background(), &resilientmaps.TransportRequest{URL: url})
	assert.Error(t, err)
}

func TestHTTPTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr := resilientmaps.NewHTTPTransport(nil, 50*time.Millisecond)
	start := time.Now()
	_, err := tr.Do(context.Background(), &resilientmaps.TransportRequest{URL: srv.URL})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"OK","timeZoneId":"America/Los_Angeles"}`)
	}))
	defer srv.Close()

	c := resilientmaps.NewClient("secret",
		resilientmaps.WithBaseURL(srv.URL),
		resilientmaps.WithHTTPClient(srv.Client()),
		resilientmaps.WithRetryConfig(fastRetry()),
	)

	req := resilientmaps.NewRequest(resilientmaps.ApiTimeZone, "timezone", nil)
	require.NoError(t, req.Set("location", "39.6034810,-119.6822510"))
	require.NoError(t, req.Set("timestamp", "1331161200"))

	var payload struct {
		TimeZoneID string `json:"timeZoneId"`
	}
	res, err := c.Execute(context.Background(), req, resilientmaps.JSONEnvelope(&payload))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "America/Los_Angeles", payload.TimeZoneID)
	assert.Equal(t, int32(2), hits.Load())
}
