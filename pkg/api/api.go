// Package api provides clients for the external services a route plan needs:
// geocoding place names, fetching driving routes and building map links.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	OSRMResultOK    = "Ok"
	DefaultOSRMURL  = "https://router.project-osrm.org"
	DefaultTimeout  = 30 * time.Second
	osrmRouteFormat = "%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson"
)

// OSRM fetches driving routes from an OSRM route service.
type OSRM struct {
	baseURL    string
	httpClient *http.Client
}

// NewOSRM creates an OSRM client. An empty baseURL uses the public demo server.
func NewOSRM(baseURL string) *OSRM {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	return &OSRM{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Route fetches the fastest driving route between two points.
func (api *OSRM) Route(ctx context.Context, from, to Point) (*Route, error) {
	// OSRM expects lng,lat pairs
	url := fmt.Sprintf(osrmRouteFormat, api.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := api.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching route: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var routeResponse osrmResponse
	if err := json.Unmarshal(body, &routeResponse); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("error unmarshaling JSON: %w", err)
	}

	if routeResponse.Code == "NoRoute" {
		return nil, ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d (%s)", resp.StatusCode, routeResponse.Message)
	}
	if routeResponse.Code != OSRMResultOK {
		return nil, fmt.Errorf("OSRM returned non-OK result: %s", routeResponse.Code)
	}
	if len(routeResponse.Routes) == 0 {
		return nil, ErrNoRoute
	}

	r := routeResponse.Routes[0]
	route := &Route{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Geometry:        make([]Point, 0, len(r.Geometry.Coordinates)),
	}
	for _, c := range r.Geometry.Coordinates {
		route.Geometry = append(route.Geometry, Point{Lat: c[1], Lng: c[0]})
	}

	return route, nil
}
