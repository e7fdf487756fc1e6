package resilientmaps

import "strings"

// Api identifies a rate-limiting category. Every request is charged against
// its own category and against ApiAll.
type Api int

const (
	ApiAll Api = iota
	ApiDirections
	ApiElevation
	ApiGeocoding
	ApiPlaces
	ApiTimeZone
)

var apiNames = map[Api]string{
	ApiAll:        "all",
	ApiDirections: "directions",
	ApiElevation:  "elevation",
	ApiGeocoding:  "geocoding",
	ApiPlaces:     "places",
	ApiTimeZone:   "timezone",
}

func (a Api) String() string {
	if name, ok := apiNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Api) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseApi maps a category name ("geocoding", "places", ...) back to its Api.
func ParseApi(name string) (Api, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for api, n := range apiNames {
		if n == name {
			return api, true
		}
	}
	return 0, false
}

// Apis lists every category, ApiAll first.
func Apis() []Api {
	return []Api{ApiAll, ApiDirections, ApiElevation, ApiGeocoding, ApiPlaces, ApiTimeZone}
}
