package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	resilientmaps "github.com/opengovern/resilient-maps"
	"github.com/opengovern/resilient-maps/internal"
)

// MaxWaypoints is the most intermediate waypoints one request may carry.
const MaxWaypoints = 25

type Polyline struct {
	Points string `json:"points"`
}

type TransitDetails struct {
	ArrivalStop struct {
		Name     string `json:"name"`
		Location LatLng `json:"location"`
	} `json:"arrival_stop"`
	DepartureStop struct {
		Name     string `json:"name"`
		Location LatLng `json:"location"`
	} `json:"departure_stop"`
	Headsign string `json:"headsign"`
	NumStops int    `json:"num_stops"`
	Line     struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
		Vehicle   struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"vehicle"`
	} `json:"line"`
}

type RouteStep struct {
	HTMLInstructions string          `json:"html_instructions"`
	Distance         TextValue       `json:"distance"`
	Duration         TextValue       `json:"duration"`
	StartLocation    LatLng          `json:"start_location"`
	EndLocation      LatLng          `json:"end_location"`
	Polyline         Polyline        `json:"polyline"`
	TravelMode       string          `json:"travel_mode"`
	Maneuver         string          `json:"maneuver,omitempty"`
	TransitDetails   *TransitDetails `json:"transit_details,omitempty"`
}

type Leg struct {
	Distance          TextValue   `json:"distance"`
	Duration          TextValue   `json:"duration"`
	DurationInTraffic *TextValue  `json:"duration_in_traffic,omitempty"`
	StartAddress      string      `json:"start_address"`
	EndAddress        string      `json:"end_address"`
	StartLocation     LatLng      `json:"start_location"`
	EndLocation       LatLng      `json:"end_location"`
	Steps             []RouteStep `json:"steps"`
}

type Route struct {
	Summary          string   `json:"summary"`
	Legs             []Leg    `json:"legs"`
	OverviewPolyline Polyline `json:"overview_polyline"`
	Bounds           Bounds   `json:"bounds"`
	Copyrights       string   `json:"copyrights"`
	Warnings         []string `json:"warnings"`
	WaypointOrder    []int    `json:"waypoint_order"`
}

type GeocodedWaypoint struct {
	GeocoderStatus string   `json:"geocoder_status"`
	PlaceID        string   `json:"place_id"`
	Types          []string `json:"types"`
}

type DirectionsResponse struct {
	Status            resilientmaps.Status `json:"status"`
	ErrorMessage      string               `json:"error_message,omitempty"`
	GeocodedWaypoints []GeocodedWaypoint   `json:"geocoded_waypoints"`
	Routes            []Route              `json:"routes"`
	AvailableModes    []string             `json:"available_travel_modes,omitempty"`
}

type DirectionsRequest struct {
	builder
	waypoints []Location
	optimize  bool
	avoid     []Avoid
	transit   []TransitMode
}

func NewDirectionsRequest(client *resilientmaps.Client, origin, destination Location) *DirectionsRequest {
	r := &DirectionsRequest{
		builder: newBuilder(client, resilientmaps.ApiDirections, "directions", directionsRule),
	}
	r.setLocation("origin", origin)
	r.setLocation("destination", destination)
	return r
}

func directionsRule(p resilientmaps.Params) error {
	if !p.Has("origin") || !p.Has("destination") {
		return errors.New("directions need an origin and a destination")
	}
	if p.Has("arrival_time") && p.Has("departure_time") {
		return errors.New("arrival_time and departure_time are mutually exclusive")
	}
	transit := p.Get("mode") == string(TravelModeTransit)
	if !transit && (p.Has("transit_mode") || p.Has("transit_routing_preference")) {
		return errors.New("transit options require mode=transit")
	}
	if !transit && p.Has("arrival_time") {
		return errors.New("arrival_time is only supported with mode=transit")
	}
	if transit && p.Has("waypoints") {
		return errors.New("waypoints are not supported with mode=transit")
	}
	if p.Has("traffic_model") && !p.Has("departure_time") {
		return errors.New("traffic_model requires departure_time")
	}
	return nil
}

func (r *DirectionsRequest) setLocation(name string, l Location) {
	if err := l.validate(); err != nil {
		r.fail("%s: %v", name, err)
		return
	}
	r.set(name, l.String())
}

func (r *DirectionsRequest) WithTravelMode(m TravelMode) *DirectionsRequest {
	r.set("mode", string(m))
	return r
}

// WithWaypoints adds intermediate stops. Repeated calls accumulate.
func (r *DirectionsRequest) WithWaypoints(points ...Location) *DirectionsRequest {
	for _, p := range points {
		if err := p.validate(); err != nil {
			r.fail("waypoint: %v", err)
			return r
		}
	}
	r.waypoints = append(r.waypoints, points...)
	if len(r.waypoints) > MaxWaypoints {
		r.fail("at most %d waypoints are allowed, got %d", MaxWaypoints, len(r.waypoints))
		return r
	}
	r.setWaypoints()
	return r
}

// WithOptimizedWaypoints lets the service reorder waypoints.
func (r *DirectionsRequest) WithOptimizedWaypoints(optimize bool) *DirectionsRequest {
	r.optimize = optimize
	if len(r.waypoints) > 0 {
		r.setWaypoints()
	}
	return r
}

func (r *DirectionsRequest) setWaypoints() {
	parts := make([]string, 0, len(r.waypoints)+1)
	if r.optimize {
		parts = append(parts, "optimize:true")
	}
	for _, w := range r.waypoints {
		parts = append(parts, w.String())
	}
	r.set("waypoints", strings.Join(parts, "|"))
}

func (r *DirectionsRequest) WithAlternatives(alternatives bool) *DirectionsRequest {
	if alternatives {
		r.set("alternatives", "true")
	} else {
		r.del("alternatives")
	}
	return r
}

func (r *DirectionsRequest) WithAvoid(features ...Avoid) *DirectionsRequest {
	r.avoid = append(r.avoid, features...)
	r.set("avoid", joinStrings(r.avoid))
	return r
}

func (r *DirectionsRequest) WithUnits(u UnitSystem) *DirectionsRequest {
	r.set("units", string(u))
	return r
}

func (r *DirectionsRequest) WithLanguage(lang string) *DirectionsRequest {
	r.set("language", lang)
	return r
}

func (r *DirectionsRequest) WithRegion(region string) *DirectionsRequest {
	r.set("region", region)
	return r
}

func (r *DirectionsRequest) WithArrivalTime(t time.Time) *DirectionsRequest {
	r.set("arrival_time", internal.UnixSeconds(t))
	return r
}

func (r *DirectionsRequest) WithDepartureTime(t time.Time) *DirectionsRequest {
	r.set("departure_time", internal.UnixSeconds(t))
	return r
}

// WithDepartureNow asks for a departure at the time the request is served.
func (r *DirectionsRequest) WithDepartureNow() *DirectionsRequest {
	r.set("departure_time", "now")
	return r
}

func (r *DirectionsRequest) WithTrafficModel(m TrafficModel) *DirectionsRequest {
	r.set("traffic_model", string(m))
	return r
}

func (r *DirectionsRequest) WithTransitModes(modes ...TransitMode) *DirectionsRequest {
	r.transit = append(r.transit, modes...)
	r.set("transit_mode", joinStrings(r.transit))
	return r
}

func (r *DirectionsRequest) WithTransitRoutingPreference(p TransitRoutingPreference) *DirectionsRequest {
	r.set("transit_routing_preference", string(p))
	return r
}

func (r *DirectionsRequest) Execute(ctx context.Context) (*DirectionsResponse, error) {
	var resp DirectionsResponse
	if _, err := r.execute(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
