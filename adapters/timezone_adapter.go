package adapters

import (
	"context"
	"errors"
	"time"

	resilientmaps "github.com/opengovern/resilient-maps"
	"github.com/opengovern/resilient-maps/internal"
)

type TimeZoneResponse struct {
	Status       resilientmaps.Status `json:"status"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
	// DstOffset and RawOffset are in seconds.
	DstOffset    int    `json:"dstOffset"`
	RawOffset    int    `json:"rawOffset"`
	TimeZoneID   string `json:"timeZoneId"`
	TimeZoneName string `json:"timeZoneName"`
}

// Offset is the total offset from UTC at the requested timestamp.
func (r *TimeZoneResponse) Offset() time.Duration {
	return time.Duration(r.DstOffset+r.RawOffset) * time.Second
}

// Location loads the IANA zone named by TimeZoneID.
func (r *TimeZoneResponse) Location() (*time.Location, error) {
	return time.LoadLocation(r.TimeZoneID)
}

type TimeZoneRequest struct {
	builder
}

func NewTimeZoneRequest(client *resilientmaps.Client, location LatLng, at time.Time) *TimeZoneRequest {
	r := &TimeZoneRequest{
		builder: newBuilder(client, resilientmaps.ApiTimeZone, "timezone", timeZoneRule),
	}
	if !location.valid() {
		r.fail("coordinate %s out of range", location)
		return r
	}
	r.set("location", location.String())
	r.set("timestamp", internal.UnixSeconds(at))
	return r
}

func timeZoneRule(p resilientmaps.Params) error {
	if !p.Has("location") || !p.Has("timestamp") {
		return errors.New("time zone requests need a location and a timestamp")
	}
	return nil
}

func (r *TimeZoneRequest) WithLanguage(lang string) *TimeZoneRequest {
	r.set("language", lang)
	return r
}

func (r *TimeZoneRequest) Execute(ctx context.Context) (*TimeZoneResponse, error) {
	var resp TimeZoneResponse
	if _, err := r.execute(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
