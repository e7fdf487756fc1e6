package adapters

import (
	"fmt"
	"strconv"
	"strings"
)

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewLatLng checks the coordinate ranges.
func NewLatLng(lat, lng float64) (LatLng, error) {
	if lat < -90 || lat > 90 {
		return LatLng{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return LatLng{}, fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}

// ParseLatLng reads "lat,lng".
func ParseLatLng(s string) (LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return LatLng{}, fmt.Errorf("expected \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("parsing longitude: %w", err)
	}
	return NewLatLng(lat, lng)
}

// String renders seven decimal places, the precision the services accept.
func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', 7, 64) + "," + strconv.FormatFloat(l.Lng, 'f', 7, 64)
}

func (l LatLng) valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Bounds is a viewport rectangle.
type Bounds struct {
	Northeast LatLng `json:"northeast"`
	Southwest LatLng `json:"southwest"`
}

// String renders "southwest|northeast".
func (b Bounds) String() string {
	return b.Southwest.String() + "|" + b.Northeast.String()
}

func joinLatLngs(points []LatLng) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = p.String()
	}
	return strings.Join(parts, "|")
}

// Location is an origin, destination or waypoint: exactly one of an address,
// a coordinate, or a place ID.
type Location struct {
	Address string
	LatLng  *LatLng
	PlaceID string
}

func AddressLocation(address string) Location {
	return Location{Address: address}
}

func LatLngLocation(lat, lng float64) Location {
	return Location{LatLng: &LatLng{Lat: lat, Lng: lng}}
}

func PlaceIDLocation(id string) Location {
	return Location{PlaceID: id}
}

func (l Location) String() string {
	switch {
	case l.PlaceID != "":
		return "place_id:" + l.PlaceID
	case l.LatLng != nil:
		return l.LatLng.String()
	default:
		return l.Address
	}
}

func (l Location) validate() error {
	n := 0
	if l.Address != "" {
		n++
	}
	if l.LatLng != nil {
		if !l.LatLng.valid() {
			return fmt.Errorf("coordinate %s out of range", l.LatLng)
		}
		n++
	}
	if l.PlaceID != "" {
		n++
	}
	if n != 1 {
		return fmt.Errorf("location needs exactly one of address, coordinate or place ID")
	}
	return nil
}

// TextValue is the {text, value} pair used for distances and durations.
type TextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type PlusCode struct {
	CompoundCode string `json:"compound_code,omitempty"`
	GlobalCode   string `json:"global_code"`
}

type TravelMode string

const (
	TravelModeDriving   TravelMode = "driving"
	TravelModeWalking   TravelMode = "walking"
	TravelModeBicycling TravelMode = "bicycling"
	TravelModeTransit   TravelMode = "transit"
)

type Avoid string

const (
	AvoidTolls    Avoid = "tolls"
	AvoidHighways Avoid = "highways"
	AvoidFerries  Avoid = "ferries"
	AvoidIndoor   Avoid = "indoor"
)

type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

type TransitMode string

const (
	TransitBus    TransitMode = "bus"
	TransitSubway TransitMode = "subway"
	TransitTrain  TransitMode = "train"
	TransitTram   TransitMode = "tram"
	TransitRail   TransitMode = "rail"
)

type TransitRoutingPreference string

const (
	LessWalking    TransitRoutingPreference = "less_walking"
	FewerTransfers TransitRoutingPreference = "fewer_transfers"
)

type TrafficModel string

const (
	TrafficBestGuess   TrafficModel = "best_guess"
	TrafficPessimistic TrafficModel = "pessimistic"
	TrafficOptimistic  TrafficModel = "optimistic"
)

// ComponentFilter restricts geocoding results, e.g. {"country", "FR"}.
type ComponentFilter struct {
	Component string
	Value     string
}

func (c ComponentFilter) String() string {
	return c.Component + ":" + c.Value
}

// Geocoding location types, also used to filter reverse geocoding results.
const (
	LocationTypeRooftop           = "ROOFTOP"
	LocationTypeRangeInterpolated = "RANGE_INTERPOLATED"
	LocationTypeGeometricCenter   = "GEOMETRIC_CENTER"
	LocationTypeApproximate       = "APPROXIMATE"
)

func joinStrings[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}
