package adapters

import (
	"context"
	"errors"
	"strconv"

	resilientmaps "github.com/opengovern/resilient-maps"
)

// MaxSamples is the largest samples value a sampled path request accepts.
const MaxSamples = 512

type ElevationResult struct {
	Elevation  float64 `json:"elevation"`
	Location   LatLng  `json:"location"`
	Resolution float64 `json:"resolution"`
}

type ElevationResponse struct {
	Status       resilientmaps.Status `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Results      []ElevationResult    `json:"results"`
}

// ElevationRequest is either positional (locations) or a sampled path.
type ElevationRequest struct {
	builder
}

func NewElevationRequest(client *resilientmaps.Client) *ElevationRequest {
	return &ElevationRequest{
		builder: newBuilder(client, resilientmaps.ApiElevation, "elevation", elevationRule),
	}
}

func elevationRule(p resilientmaps.Params) error {
	hasLocations, hasPath := p.Has("locations"), p.Has("path")
	switch {
	case hasLocations && hasPath:
		return errors.New("locations and path are mutually exclusive")
	case !hasLocations && !hasPath:
		return errors.New("elevation needs locations or a sampled path")
	case hasPath && !p.Has("samples"):
		return errors.New("a sampled path requires samples")
	case hasLocations && p.Has("samples"):
		return errors.New("samples only applies to a sampled path")
	}
	return nil
}

// ForLocations requests elevation at each point.
func (r *ElevationRequest) ForLocations(points ...LatLng) *ElevationRequest {
	if len(points) == 0 {
		r.fail("at least one location is required")
		return r
	}
	if err := checkPoints(points); err != nil {
		r.fail("%v", err)
		return r
	}
	r.set("locations", joinLatLngs(points))
	return r
}

// ForEncodedLocations requests elevation at each vertex of an encoded polyline.
func (r *ElevationRequest) ForEncodedLocations(polyline string) *ElevationRequest {
	if polyline == "" {
		r.fail("encoded polyline must not be empty")
		return r
	}
	r.set("locations", "enc:"+polyline)
	return r
}

// ForPath samples the path at evenly spaced points.
func (r *ElevationRequest) ForPath(samples int, points ...LatLng) *ElevationRequest {
	if len(points) < 2 {
		r.fail("a path needs at least two points, got %d", len(points))
		return r
	}
	if err := checkPoints(points); err != nil {
		r.fail("%v", err)
		return r
	}
	r.set("path", joinLatLngs(points))
	r.setSamples(samples)
	return r
}

// ForEncodedPath samples an encoded polyline path.
func (r *ElevationRequest) ForEncodedPath(samples int, polyline string) *ElevationRequest {
	if polyline == "" {
		r.fail("encoded polyline must not be empty")
		return r
	}
	r.set("path", "enc:"+polyline)
	r.setSamples(samples)
	return r
}

func (r *ElevationRequest) setSamples(samples int) {
	if samples < 1 || samples > MaxSamples {
		r.fail("samples must be between 1 and %d, got %d", MaxSamples, samples)
		return
	}
	r.set("samples", strconv.Itoa(samples))
}

func checkPoints(points []LatLng) error {
	for _, p := range points {
		if !p.valid() {
			return errors.New("coordinate " + p.String() + " out of range")
		}
	}
	return nil
}

func (r *ElevationRequest) Execute(ctx context.Context) (*ElevationResponse, error) {
	var resp ElevationResponse
	if _, err := r.execute(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
