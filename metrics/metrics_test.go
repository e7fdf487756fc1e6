package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resilientmaps "github.com/opengovern/resilient-maps"
	"github.com/opengovern/resilient-maps/mock"
)

func TestRecorder_WithClient(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := New(reg)
	require.NoError(t, err)

	tr := mock.Script(mock.OK(mock.UnknownErrorBody), mock.OK(mock.OKBody))
	c := resilientmaps.NewClient("k",
		resilientmaps.WithTransport(tr),
		resilientmaps.WithObserver(rec),
		resilientmaps.WithRetryConfig(resilientmaps.RetryConfig{
			InitialInterval: time.Millisecond,
			Multiplier:      1,
			MaxInterval:     time.Millisecond,
			MaxElapsedTime:  time.Second,
		}),
	)

	req := resilientmaps.NewRequest(resilientmaps.ApiGeocoding, "geocode", nil)
	require.NoError(t, req.Set("address", "Oslo"))
	_, err = c.Execute(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.attempts.WithLabelValues("geocoding", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.attempts.WithLabelValues("geocoding", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.retries.WithLabelValues("geocoding")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.requests.WithLabelValues("geocoding", "success")))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", resultLabel(nil))
	assert.Equal(t, "exhausted", resultLabel(&resilientmaps.Error{Kind: resilientmaps.KindRetryBudgetExhausted}))
	assert.Equal(t, "cancelled", resultLabel(&resilientmaps.Error{Kind: resilientmaps.KindCancelled}))
	assert.Equal(t, "permanent", resultLabel(&resilientmaps.Error{Kind: resilientmaps.KindRemoteRejection}))
	assert.Equal(t, "permanent", resultLabel(&resilientmaps.Error{Kind: resilientmaps.KindMalformedResponse}))
	assert.Equal(t, "error", resultLabel(&resilientmaps.Error{Kind: resilientmaps.KindValidation}))
}

func TestNew_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := New(reg)
	require.NoError(t, err)
	rec.ObserveResult(resilientmaps.ApiTimeZone, 1, 10*time.Millisecond, nil)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `maps_client_requests_total{api="timezone",result="success"} 1`))
}
