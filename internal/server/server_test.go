package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/fuelroute/internal/catalog"
	"github.com/rubiojr/fuelroute/internal/gasdb"
	"github.com/rubiojr/fuelroute/internal/selector"
	"github.com/rubiojr/fuelroute/pkg/api"
)

type stubGeocoder struct {
	points map[string]api.Point
}

func (g stubGeocoder) Geocode(_ context.Context, name string) (api.Point, error) {
	p, ok := g.points[name]
	if !ok {
		return api.Point{}, api.ErrLocationNotFound
	}
	return p, nil
}

type stubRouter struct {
	route *api.Route
	err   error
}

func (r stubRouter) Route(_ context.Context, _, _ api.Point) (*api.Route, error) {
	return r.route, r.err
}

type staticSource struct {
	c *catalog.Catalog
}

func (s staticSource) Load(_ context.Context) *catalog.Catalog { return s.c }

type memorySearchLog struct {
	mu       sync.Mutex
	searches [][2]string
	err      error
}

func (m *memorySearchLog) LogRouteSearch(_ context.Context, start, end string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.searches = append(m.searches, [2]string{start, end})
	return nil
}

func (m *memorySearchLog) PopularRoutes(_ context.Context, limit int) ([]gasdb.RouteSearch, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []gasdb.RouteSearch{{StartCity: "dallas", EndCity: "austin", SearchCount: 3, LastSearch: time.Unix(0, 0).UTC()}}, nil
}

var (
	dallas = api.Point{Lat: 32.7767, Lng: -96.797}
	austin = api.Point{Lat: 30.2672, Lng: -97.7431}
)

func newTestServer(router stubRouter, searches SearchLog) http.Handler {
	c := catalog.New([]catalog.Station{
		{Name: "A", Address: "a", City: "Dallas", Price: 3.10},
		{Name: "B", Address: "b", City: "Austin", Price: 2.95},
		{Name: "C", Address: "c", City: "Dallas", Price: 3.05},
		{Name: "D", Address: "d", City: "Waco", Price: 1.00},
	})
	s := New(Deps{
		Selector:   selector.New(staticSource{c}),
		Geocoder:   stubGeocoder{points: map[string]api.Point{"Dallas": dallas, "Austin": austin}},
		Router:     router,
		Searches:   searches,
		MapsAPIKey: "key",
	})
	return s.Routes()
}

func okRouter() stubRouter {
	return stubRouter{route: &api.Route{
		DistanceMeters:  313412.4,
		DurationSeconds: 11054.2,
		Geometry:        []api.Point{dallas, austin},
	}}
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/optimal_route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestOptimalRoute(t *testing.T) {
	searches := &memorySearchLog{}
	h := newTestServer(okRouter(), searches)

	w := post(h, `{"start_location": "Dallas", "end_location": "Austin"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp struct {
		RouteMapURL   string            `json:"route_map_url"`
		FuelStops     []catalog.Station `json:"fuel_stops"`
		TotalFuelCost float64           `json:"total_fuel_cost"`
		Route         struct {
			DistanceMeters float64      `json:"distance_meters"`
			Geometry       [][2]float64 `json:"geometry"`
		} `json:"route"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	if !strings.HasPrefix(resp.RouteMapURL, "https://www.google.com/maps/embed/v1/directions?") {
		t.Errorf("route_map_url = %q", resp.RouteMapURL)
	}
	wantNames := []string{"B", "C", "A"}
	if len(resp.FuelStops) != len(wantNames) {
		t.Fatalf("got %d fuel stops, want %d", len(resp.FuelStops), len(wantNames))
	}
	for i, name := range wantNames {
		if resp.FuelStops[i].Name != name {
			t.Errorf("fuel_stops[%d] = %q, want %q", i, resp.FuelStops[i].Name, name)
		}
	}
	if math.Abs(resp.TotalFuelCost-9.10) > 1e-9 {
		t.Errorf("total_fuel_cost = %v, want 9.10", resp.TotalFuelCost)
	}
	if resp.Route.DistanceMeters != 313412.4 || len(resp.Route.Geometry) != 2 {
		t.Errorf("unexpected route summary %+v", resp.Route)
	}
	if resp.Route.Geometry[0] != [2]float64{dallas.Lat, dallas.Lng} {
		t.Errorf("geometry[0] = %v, want lat,lng of Dallas", resp.Route.Geometry[0])
	}

	if !strings.Contains(w.Body.String(), `"truckshop_name"`) {
		t.Errorf("response is missing the truckshop_name field: %s", w.Body.String())
	}

	if len(searches.searches) != 1 || searches.searches[0] != [2]string{"Dallas", "Austin"} {
		t.Errorf("logged searches = %v", searches.searches)
	}
}

func TestOptimalRouteErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		router stubRouter
		want   string
	}{
		{"missing end", `{"start_location": "Dallas"}`, okRouter(), errLocationsRequired},
		{"blank start", `{"start_location": "  ", "end_location": "Austin"}`, okRouter(), errLocationsRequired},
		{"invalid body", `not json`, okRouter(), errLocationsRequired},
		{"unknown location", `{"start_location": "Dallas", "end_location": "Atlantis"}`, okRouter(), errNoCoordinates},
		{"routing failure", `{"start_location": "Dallas", "end_location": "Austin"}`, stubRouter{err: api.ErrNoRoute}, errNoRouteData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newTestServer(tt.router, nil), tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if resp.Error != tt.want {
				t.Errorf("error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}

func TestOptimalRouteSearchLogFailure(t *testing.T) {
	h := newTestServer(okRouter(), &memorySearchLog{err: errors.New("disk full")})

	w := post(h, `{"start_location": "Dallas", "end_location": "Austin"}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when search logging fails, got %d", w.Code)
	}
}

func TestFuelStops(t *testing.T) {
	h := newTestServer(okRouter(), nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"match", "?start=waco&end=Houston", http.StatusOK, `{"fuel_stops":[{"truckshop_name":"D","address":"d","price":1,"city":"Waco"}],"total_fuel_cost":1}`},
		{"no match", "?start=Miami&end=Orlando", http.StatusOK, `{"fuel_stops":[],"total_fuel_cost":0}`},
		{"missing", "?start=Miami", http.StatusBadRequest, `{"error":"` + errLocationsRequired + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/fuel_stops"+tt.query, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestPopularRoutes(t *testing.T) {
	tests := []struct {
		name       string
		searches   SearchLog
		query      string
		wantStatus int
	}{
		{"disabled", nil, "", http.StatusNotFound},
		{"ok", &memorySearchLog{}, "?limit=5", http.StatusOK},
		{"bad limit", &memorySearchLog{}, "?limit=abc", http.StatusBadRequest},
		{"store error", &memorySearchLog{err: errors.New("boom")}, "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(okRouter(), tt.searches)
			req := httptest.NewRequest(http.MethodGet, "/popular_routes"+tt.query, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), `"start_city":"dallas"`) {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(okRouter(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("GET /health = %d %q", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	s := New(Deps{
		Selector:  selector.New(staticSource{catalog.Empty()}),
		RateLimit: 2,
	})
	h := s.Routes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
}
