package adapters

import (
	"context"
	"errors"
	"strings"

	resilientmaps "github.com/opengovern/resilient-maps"
)

const geocodeService = "geocode"

type Geometry struct {
	Location     LatLng  `json:"location"`
	LocationType string  `json:"location_type"`
	Viewport     Bounds  `json:"viewport"`
	Bounds       *Bounds `json:"bounds,omitempty"`
}

type GeocodingResult struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
	PlaceID           string             `json:"place_id"`
	PlusCode          *PlusCode          `json:"plus_code,omitempty"`
	Types             []string           `json:"types"`
	PartialMatch      bool               `json:"partial_match,omitempty"`
}

type GeocodingResponse struct {
	Status       resilientmaps.Status `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Results      []GeocodingResult    `json:"results"`
}

// GeocodingRequest is a forward geocoding request (address to coordinates).
type GeocodingRequest struct {
	builder
	components []ComponentFilter
}

func NewGeocodingRequest(client *resilientmaps.Client) *GeocodingRequest {
	return &GeocodingRequest{
		builder: newBuilder(client, resilientmaps.ApiGeocoding, geocodeService, forwardGeocodingRule),
	}
}

func forwardGeocodingRule(p resilientmaps.Params) error {
	if !p.Has("address") && !p.Has("components") {
		return errors.New("forward geocoding needs an address or at least one component filter")
	}
	return nil
}

func (r *GeocodingRequest) WithAddress(address string) *GeocodingRequest {
	address = strings.TrimSpace(address)
	if address == "" {
		r.fail("address must not be empty")
		return r
	}
	r.set("address", address)
	return r
}

// WithComponent adds a component filter. Repeated calls accumulate.
func (r *GeocodingRequest) WithComponent(component, value string) *GeocodingRequest {
	if component == "" || value == "" {
		r.fail("component filter needs a name and a value")
		return r
	}
	r.components = append(r.components, ComponentFilter{Component: component, Value: value})
	parts := make([]string, len(r.components))
	for i, c := range r.components {
		parts[i] = c.String()
	}
	r.set("components", strings.Join(parts, "|"))
	return r
}

func (r *GeocodingRequest) WithBounds(b Bounds) *GeocodingRequest {
	r.set("bounds", b.String())
	return r
}

func (r *GeocodingRequest) WithLanguage(lang string) *GeocodingRequest {
	r.set("language", lang)
	return r
}

func (r *GeocodingRequest) WithRegion(region string) *GeocodingRequest {
	r.set("region", region)
	return r
}

func (r *GeocodingRequest) Execute(ctx context.Context) (*GeocodingResponse, error) {
	var resp GeocodingResponse
	if _, err := r.execute(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReverseGeocodingRequest turns a coordinate or place ID into addresses.
type ReverseGeocodingRequest struct {
	builder
}

func NewReverseGeocodingRequest(client *resilientmaps.Client) *ReverseGeocodingRequest {
	return &ReverseGeocodingRequest{
		builder: newBuilder(client, resilientmaps.ApiGeocoding, geocodeService, reverseGeocodingRule),
	}
}

func reverseGeocodingRule(p resilientmaps.Params) error {
	hasLatLng, hasPlace := p.Has("latlng"), p.Has("place_id")
	if hasLatLng == hasPlace {
		return errors.New("reverse geocoding needs exactly one of latlng or place_id")
	}
	return nil
}

func (r *ReverseGeocodingRequest) WithLatLng(l LatLng) *ReverseGeocodingRequest {
	if !l.valid() {
		r.fail("coordinate %s out of range", l)
		return r
	}
	r.set("latlng", l.String())
	return r
}

func (r *ReverseGeocodingRequest) WithPlaceID(id string) *ReverseGeocodingRequest {
	r.set("place_id", id)
	return r
}

// WithResultTypes filters results by address type, e.g. "street_address".
func (r *ReverseGeocodingRequest) WithResultTypes(types ...string) *ReverseGeocodingRequest {
	if len(types) == 0 {
		r.del("result_type")
		return r
	}
	r.set("result_type", strings.Join(types, "|"))
	return r
}

// WithLocationTypes filters results by LocationType* values.
func (r *ReverseGeocodingRequest) WithLocationTypes(types ...string) *ReverseGeocodingRequest {
	if len(types) == 0 {
		r.del("location_type")
		return r
	}
	r.set("location_type", strings.Join(types, "|"))
	return r
}

func (r *ReverseGeocodingRequest) WithLanguage(lang string) *ReverseGeocodingRequest {
	r.set("language", lang)
	return r
}

func (r *ReverseGeocodingRequest) Execute(ctx context.Context) (*GeocodingResponse, error) {
	var resp GeocodingResponse
	if _, err := r.execute(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
