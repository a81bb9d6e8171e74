package api

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleDirections fetches driving routes from the Google Directions API.
type GoogleDirections struct {
	client *maps.Client
}

// NewGoogleDirections creates a Directions client with the given API key.
func NewGoogleDirections(apiKey string, opts ...maps.ClientOption) (*GoogleDirections, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleDirections{client: client}, nil
}

// Route fetches a driving route between two points.
func (g *GoogleDirections) Route(ctx context.Context, from, to Point) (*Route, error) {
	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, ErrNoRoute
	}

	route := &Route{}
	for _, leg := range routes[0].Legs {
		route.DistanceMeters += float64(leg.Distance.Meters)
		route.DurationSeconds += leg.Duration.Seconds()
	}

	path, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("error decoding route polyline: %w", err)
	}
	route.Geometry = make([]Point, 0, len(path))
	for _, ll := range path {
		route.Geometry = append(route.Geometry, Point{Lat: ll.Lat, Lng: ll.Lng})
	}

	return route, nil
}
