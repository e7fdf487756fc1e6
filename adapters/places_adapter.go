package adapters

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	resilientmaps "github.com/opengovern/resilient-maps"
)

type ReviewsSort string

const (
	ReviewsMostRelevant ReviewsSort = "most_relevant"
	ReviewsNewest       ReviewsSort = "newest"
)

type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

type Review struct {
	AuthorName              string `json:"author_name"`
	Language                string `json:"language,omitempty"`
	Rating                  int    `json:"rating"`
	RelativeTimeDescription string `json:"relative_time_description"`
	Text                    string `json:"text"`
	Time                    int64  `json:"time"`
}

type Place struct {
	PlaceID                  string             `json:"place_id"`
	Name                     string             `json:"name"`
	FormattedAddress         string             `json:"formatted_address,omitempty"`
	FormattedPhoneNumber     string             `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string             `json:"international_phone_number,omitempty"`
	AddressComponents        []AddressComponent `json:"address_components,omitempty"`
	Geometry                 *Geometry          `json:"geometry,omitempty"`
	BusinessStatus           string             `json:"business_status,omitempty"`
	OpeningHours             *OpeningHours      `json:"opening_hours,omitempty"`
	Rating                   float64            `json:"rating,omitempty"`
	UserRatingsTotal         int                `json:"user_ratings_total,omitempty"`
	Reviews                  []Review           `json:"reviews,omitempty"`
	Types                    []string           `json:"types,omitempty"`
	URL                      string             `json:"url,omitempty"`
	Website                  string             `json:"website,omitempty"`
	UTCOffset                *int               `json:"utc_offset,omitempty"`
	Vicinity                 string             `json:"vicinity,omitempty"`
}

type PlaceDetailsResponse struct {
	Status           resilientmaps.Status `json:"status"`
	ErrorMessage     string               `json:"error_message,omitempty"`
	HTMLAttributions []string             `json:"html_attributions"`
	Result           *Place               `json:"result,omitempty"`
	InfoMessages     []string             `json:"info_messages,omitempty"`
}

type PlaceDetailsRequest struct {
	builder
	sessionToken string
}

func NewPlaceDetailsRequest(client *resilientmaps.Client, placeID string) *PlaceDetailsRequest {
	r := &PlaceDetailsRequest{
		builder: newBuilder(client, resilientmaps.ApiPlaces, "place/details", placeDetailsRule),
	}
	if strings.TrimSpace(placeID) == "" {
		r.fail("place ID must not be empty")
		return r
	}
	r.set("place_id", placeID)
	return r
}

func placeDetailsRule(p resilientmaps.Params) error {
	if !p.Has("place_id") {
		return errors.New("place details need a place_id")
	}
	return nil
}

// WithFields restricts the returned fields, e.g. "name", "geometry/location".
func (r *PlaceDetailsRequest) WithFields(fields ...string) *PlaceDetailsRequest {
	if len(fields) == 0 {
		r.del("fields")
		return r
	}
	r.set("fields", strings.Join(fields, ","))
	return r
}

func (r *PlaceDetailsRequest) WithLanguage(lang string) *PlaceDetailsRequest {
	r.set("language", lang)
	return r
}

// WithRegion biases results to a ccTLD region code such as "uk".
func (r *PlaceDetailsRequest) WithRegion(region string) *PlaceDetailsRequest {
	r.set("region", region)
	return r
}

// WithSessionToken ties the request to an autocomplete session.
func (r *PlaceDetailsRequest) WithSessionToken(token string) *PlaceDetailsRequest {
	if _, err := uuid.Parse(token); err != nil {
		r.fail("session token %q is not a UUID", token)
		return r
	}
	r.sessionToken = token
	r.set("sessiontoken", token)
	return r
}

// WithNewSessionToken generates a fresh version 4 session token.
func (r *PlaceDetailsRequest) WithNewSessionToken() *PlaceDetailsRequest {
	return r.WithSessionToken(uuid.NewString())
}

// SessionToken returns the token set on the request, if any.
func (r *PlaceDetailsRequest) SessionToken() string {
	return r.sessionToken
}

func (r *PlaceDetailsRequest) WithReviewsNoTranslations(on bool) *PlaceDetailsRequest {
	if on {
		r.set("reviews_no_translations", "true")
	} else {
		r.del("reviews_no_translations")
	}
	return r
}

func (r *PlaceDetailsRequest) WithReviewsSort(s ReviewsSort) *PlaceDetailsRequest {
	r.set("reviews_sort", string(s))
	return r
}

func (r *PlaceDetailsRequest) Execute(ctx context.Context) (*PlaceDetailsResponse, error) {
	var resp PlaceDetailsResponse
	if _, err := r.execute(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
