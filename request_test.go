package resilientmaps_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resilientmaps "github.com/opengovern/resilient-maps"
)

func requireAddress(p resilientmaps.Params) error {
	if !p.Has("address") {
		return errors.New("address is required")
	}
	return nil
}

func newGeocode(t *testing.T) *resilientmaps.Request {
	t.Helper()
	req := resilientmaps.NewRequest(resilientmaps.ApiGeocoding, "geocode", requireAddress)
	require.NoError(t, req.Set("address", "10 Downing St, London"))
	require.NoError(t, req.Set("language", "en"))
	return req
}

func TestRequest_Lifecycle(t *testing.T) {
	req := newGeocode(t)
	assert.Equal(t, resilientmaps.StateUnvalidated, req.State())

	_, err := req.Query()
	assert.ErrorIs(t, err, resilientmaps.ErrQueryNotBuilt)

	err = req.Build("k")
	assert.ErrorIs(t, err, resilientmaps.ErrRequestNotValidated)
	assert.Equal(t, resilientmaps.StateUnvalidated, req.State())

	require.NoError(t, req.Validate())
	assert.Equal(t, resilientmaps.StateValidated, req.State())

	_, err = req.Query()
	assert.ErrorIs(t, err, resilientmaps.ErrQueryNotBuilt)

	require.NoError(t, req.Build("k"))
	assert.Equal(t, resilientmaps.StateBuilt, req.State())

	q1, err := req.Query()
	require.NoError(t, err)
	q2, err := req.Query()
	require.NoError(t, err)
	assert.Equal(t, q1, q2)

	// Built is terminal for Build.
	assert.ErrorIs(t, req.Build("k"), resilientmaps.ErrRequestNotValidated)
	// Validate is a no-op once past Unvalidated.
	assert.NoError(t, req.Validate())
	assert.Equal(t, resilientmaps.StateBuilt, req.State())
}

func TestRequest_SetAfterValidateIsLocked(t *testing.T) {
	req := newGeocode(t)
	require.NoError(t, req.Validate())

	err := req.Set("region", "uk")
	assert.ErrorIs(t, err, resilientmaps.ErrRequestLocked)
	assert.ErrorIs(t, req.Del("language"), resilientmaps.ErrRequestLocked)

	_, ok := req.Get("region")
	assert.False(t, ok)
}

func TestRequest_ValidationFailureKeepsState(t *testing.T) {
	req := resilientmaps.NewRequest(resilientmaps.ApiGeocoding, "geocode", requireAddress)
	require.NoError(t, req.Set("language", "en"))

	err := req.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, resilientmaps.ErrValidation)
	assert.Equal(t, resilientmaps.KindValidation, resilientmaps.KindOf(err))
	assert.Contains(t, err.Error(), "address is required")
	assert.Equal(t, resilientmaps.StateUnvalidated, req.State())

	// The request can still be fixed and validated.
	require.NoError(t, req.Set("address", "Paris"))
	assert.NoError(t, req.Validate())
}

func TestRequest_DeterministicQuery(t *testing.T) {
	build := func(order []string) string {
		req := resilientmaps.NewRequest(resilientmaps.ApiGeocoding, "geocode", nil)
		values := map[string]string{
			"address":  "1600 Amphitheatre Pkwy",
			"language": "en",
			"bounds":   "34.1,-118.6|34.2,-118.5",
			"region":   "us",
		}
		for _, k := range order {
			require.NoError(t, req.Set(k, values[k]))
		}
		require.NoError(t, req.Validate())
		require.NoError(t, req.Build("secret"))
		q, err := req.Query()
		require.NoError(t, err)
		return q
	}

	a := build([]string{"address", "language", "bounds", "region"})
	b := build([]string{"region", "bounds", "language", "address"})
	assert.Equal(t, a, b)
	assert.Equal(t,
		"address=1600+Amphitheatre+Pkwy&bounds=34.1%2C-118.6%7C34.2%2C-118.5&key=secret&language=en&region=us",
		a)
}

func TestRequest_URL(t *testing.T) {
	req := resilientmaps.NewRequest(resilientmaps.ApiPlaces, "place/details", nil)
	require.NoError(t, req.Set("place_id", "ChIJN1t_tDeuEmsRUsoyG83frY4"))
	require.NoError(t, req.Validate())
	require.NoError(t, req.Build("k"))

	u, err := req.URL("https://maps.googleapis.com/maps/api")
	require.NoError(t, err)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/place/details/json?key=k&place_id=ChIJN1t_tDeuEmsRUsoyG83frY4", u)
}

func TestRequest_EmptyKeyOmitted(t *testing.T) {
	req := resilientmaps.NewRequest(resilientmaps.ApiTimeZone, "timezone", nil)
	require.NoError(t, req.Set("location", "39.6034810,-119.6822510"))
	require.NoError(t, req.Validate())
	require.NoError(t, req.Build(""))

	q, err := req.Query()
	require.NoError(t, err)
	assert.Equal(t, "location=39.6034810%2C-119.6822510", q)
}

func TestRequest_RebuildRequiresBuilt(t *testing.T) {
	req := newGeocode(t)
	assert.ErrorIs(t, req.Rebuild("k"), resilientmaps.ErrQueryNotBuilt)

	require.NoError(t, req.Validate())
	require.NoError(t, req.Build("old"))
	require.NoError(t, req.Rebuild("new"))

	q, err := req.Query()
	require.NoError(t, err)
	assert.Contains(t, q, "key=new")
}

func TestRequest_ValidationErrorFromRuleIsNotWrappedTwice(t *testing.T) {
	rule := func(p resilientmaps.Params) error {
		return resilientmaps.Invalid(resilientmaps.ApiTimeZone, "timestamp is required")
	}
	req := resilientmaps.NewRequest(resilientmaps.ApiTimeZone, "timezone", rule)

	err := req.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, resilientmaps.ErrValidation)
	assert.Equal(t, 1, strings.Count(err.Error(), resilientmaps.ErrValidation.Error()), err.Error())
	assert.Contains(t, err.Error(), "timestamp is required")

	var mapsErr *resilientmaps.Error
	require.True(t, errors.As(err, &mapsErr))
	assert.Equal(t, resilientmaps.ApiTimeZone, mapsErr.Api)
	assert.Nil(t, mapsErr.Err)
}
