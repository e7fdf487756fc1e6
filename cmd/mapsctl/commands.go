package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opengovern/resilient-maps/adapters"
)

func (a *app) geocodeCmd() *cobra.Command {
	var (
		language    string
		region      string
		components  []string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "geocode ADDRESS...",
		Short: "Turn one or more addresses into coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := make([]adapters.ComponentFilter, 0, len(components))
			for _, c := range components {
				name, value, ok := strings.Cut(c, "=")
				if !ok {
					return fmt.Errorf("component %q: expected name=value", c)
				}
				filters = append(filters, adapters.ComponentFilter{Component: name, Value: value})
			}

			results := make([]*adapters.GeocodingResponse, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, address := range args {
				i, address := i, address
				g.Go(func() error {
					req := adapters.NewGeocodingRequest(a.client).WithAddress(address)
					for _, f := range filters {
						req.WithComponent(f.Component, f.Value)
					}
					if language != "" {
						req.WithLanguage(language)
					}
					if region != "" {
						req.WithRegion(region)
					}
					resp, err := req.Execute(ctx)
					if err != nil {
						return fmt.Errorf("geocode %q: %w", address, err)
					}
					results[i] = resp
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return a.printJSON(results)
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "result language")
	cmd.Flags().StringVar(&region, "region", "", "region bias (ccTLD)")
	cmd.Flags().StringArrayVar(&components, "component", nil, "component filter name=value (repeatable)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "addresses geocoded in parallel")
	return cmd
}

func (a *app) reverseCmd() *cobra.Command {
	var (
		placeID  string
		language string
		types    []string
	)
	cmd := &cobra.Command{
		Use:   "reverse [LAT,LNG]",
		Short: "Turn a coordinate or place ID into addresses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := adapters.NewReverseGeocodingRequest(a.client)
			if len(args) == 1 {
				ll, err := adapters.ParseLatLng(args[0])
				if err != nil {
					return err
				}
				req.WithLatLng(ll)
			}
			if placeID != "" {
				req.WithPlaceID(placeID)
			}
			if language != "" {
				req.WithLanguage(language)
			}
			if len(types) > 0 {
				req.WithResultTypes(types...)
			}
			resp, err := req.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&placeID, "place-id", "", "reverse geocode a place ID instead of a coordinate")
	cmd.Flags().StringVar(&language, "language", "", "result language")
	cmd.Flags().StringSliceVar(&types, "type", nil, "result types to keep")
	return cmd
}

// parseLocation accepts "lat,lng", "place_id:ID" or a free-form address.
func parseLocation(s string) adapters.Location {
	if id, ok := strings.CutPrefix(s, "place_id:"); ok {
		return adapters.PlaceIDLocation(id)
	}
	if ll, err := adapters.ParseLatLng(s); err == nil {
		return adapters.Location{LatLng: &ll}
	}
	return adapters.AddressLocation(s)
}

func (a *app) directionsCmd() *cobra.Command {
	var (
		mode         string
		waypoints    []string
		optimize     bool
		avoid        []string
		alternatives bool
		units        string
		departure    string
		language     string
	)
	cmd := &cobra.Command{
		Use:   "directions ORIGIN DESTINATION",
		Short: "Route between two locations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := adapters.NewDirectionsRequest(a.client, parseLocation(args[0]), parseLocation(args[1]))
			if mode != "" {
				req.WithTravelMode(adapters.TravelMode(mode))
			}
			if len(waypoints) > 0 {
				points := make([]adapters.Location, len(waypoints))
				for i, w := range waypoints {
					points[i] = parseLocation(w)
				}
				req.WithWaypoints(points...).WithOptimizedWaypoints(optimize)
			}
			for _, f := range avoid {
				req.WithAvoid(adapters.Avoid(f))
			}
			if alternatives {
				req.WithAlternatives(true)
			}
			if units != "" {
				req.WithUnits(adapters.UnitSystem(units))
			}
			if language != "" {
				req.WithLanguage(language)
			}
			switch departure {
			case "":
			case "now":
				req.WithDepartureNow()
			default:
				t, err := time.Parse(time.RFC3339, departure)
				if err != nil {
					return fmt.Errorf("departure: %w", err)
				}
				req.WithDepartureTime(t)
			}

			resp, err := req.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "driving, walking, bicycling or transit")
	cmd.Flags().StringArrayVar(&waypoints, "waypoint", nil, "intermediate stop (repeatable)")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "let the service reorder waypoints")
	cmd.Flags().StringSliceVar(&avoid, "avoid", nil, "tolls, highways, ferries, indoor")
	cmd.Flags().BoolVar(&alternatives, "alternatives", false, "return alternative routes")
	cmd.Flags().StringVar(&units, "units", "", "metric or imperial")
	cmd.Flags().StringVar(&departure, "departure", "", "RFC3339 time or \"now\"")
	cmd.Flags().StringVar(&language, "language", "", "instruction language")
	return cmd
}

func (a *app) elevationCmd() *cobra.Command {
	var samples int
	cmd := &cobra.Command{
		Use:   "elevation LAT,LNG...",
		Short: "Elevation at points, or sampled along a path with --samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points := make([]adapters.LatLng, len(args))
			for i, s := range args {
				ll, err := adapters.ParseLatLng(s)
				if err != nil {
					return err
				}
				points[i] = ll
			}
			req := adapters.NewElevationRequest(a.client)
			if samples > 0 {
				req.ForPath(samples, points...)
			} else {
				req.ForLocations(points...)
			}
			resp, err := req.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 0, "sample a path through the points at this many locations")
	return cmd
}

func (a *app) timezoneCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "timezone LAT,LNG",
		Short: "Time zone and UTC offset of a coordinate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ll, err := adapters.ParseLatLng(args[0])
			if err != nil {
				return err
			}
			when := time.Now()
			if at != "" {
				if when, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("at: %w", err)
				}
			}
			resp, err := adapters.NewTimeZoneRequest(a.client, ll, when).Execute(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC3339 instant (default now)")
	return cmd
}

func (a *app) placeCmd() *cobra.Command {
	var (
		fields   []string
		language string
		region   string
		session  bool
	)
	cmd := &cobra.Command{
		Use:   "place PLACE_ID",
		Short: "Details of a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := adapters.NewPlaceDetailsRequest(a.client, args[0])
			if len(fields) > 0 {
				req.WithFields(fields...)
			}
			if language != "" {
				req.WithLanguage(language)
			}
			if region != "" {
				req.WithRegion(region)
			}
			if session {
				req.WithNewSessionToken()
				a.log.Debug().Str("session_token", req.SessionToken()).Msg("using session token")
			}
			resp, err := req.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return")
	cmd.Flags().StringVar(&language, "language", "", "result language")
	cmd.Flags().StringVar(&region, "region", "", "region code")
	cmd.Flags().BoolVar(&session, "session", false, "attach a fresh session token")
	return cmd
}
