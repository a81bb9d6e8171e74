package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rubiojr/fuelroute/internal/selector"
	"github.com/rubiojr/fuelroute/pkg/api"
	"golang.org/x/sync/errgroup"
)

const (
	errLocationsRequired = "Start and end locations are required."
	errNoCoordinates     = "Unable to retrieve coordinates for the provided locations."
	errNoRouteData       = "Could not retrieve route data."
	errSearchesDisabled  = "Route statistics are not enabled."
	errInvalidLimit      = "Invalid limit parameter."
)

type optimalRouteRequest struct {
	StartLocation string `json:"start_location"`
	EndLocation   string `json:"end_location"`
}

type routeSummary struct {
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Geometry        [][2]float64 `json:"geometry"`
}

type optimalRouteResponse struct {
	RouteMapURL string `json:"route_map_url"`
	selector.Result
	Route routeSummary `json:"route"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleOptimalRoute(w http.ResponseWriter, r *http.Request) {
	var req optimalRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Debug("invalid optimal route request body", "error", err)
	}
	start := strings.TrimSpace(req.StartLocation)
	end := strings.TrimSpace(req.EndLocation)

	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, errLocationsRequired)
		return
	}

	var from, to api.Point
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		from, err = s.geocoder.Geocode(ctx, start)
		return err
	})
	g.Go(func() (err error) {
		to, err = s.geocoder.Geocode(ctx, end)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("Error geocoding locations", "start", start, "end", end, "error", err)
		writeError(w, http.StatusBadRequest, errNoCoordinates)
		return
	}

	route, err := s.router.Route(r.Context(), from, to)
	if err != nil {
		s.log.Warn("Error fetching route data", "from", from.String(), "to", to.String(), "error", err)
		writeError(w, http.StatusBadRequest, errNoRouteData)
		return
	}

	result := s.selector.Select(r.Context(), start, end)

	if s.searches != nil {
		if err := s.searches.LogRouteSearch(r.Context(), start, end); err != nil {
			// Log error but don't fail the request if logging fails
			s.log.Error("Failed to log route search", "error", err)
		}
	}

	geometry := make([][2]float64, 0, len(route.Geometry))
	for _, p := range route.Geometry {
		geometry = append(geometry, [2]float64{p.Lat, p.Lng})
	}

	writeJSON(w, http.StatusOK, optimalRouteResponse{
		RouteMapURL: api.MapURL(s.mapsAPIKey, from, to),
		Result:      result,
		Route: routeSummary{
			DistanceMeters:  route.DistanceMeters,
			DurationSeconds: route.DurationSeconds,
			Geometry:        geometry,
		},
	})
}

func (s *Server) handleFuelStops(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))

	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, errLocationsRequired)
		return
	}

	writeJSON(w, http.StatusOK, s.selector.Select(r.Context(), start, end))
}

func (s *Server) handlePopularRoutes(w http.ResponseWriter, r *http.Request) {
	if s.searches == nil {
		writeError(w, http.StatusNotFound, errSearchesDisabled)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = n
	}

	routes, err := s.searches.PopularRoutes(r.Context(), limit)
	if err != nil {
		s.log.Error("Error getting popular routes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, routes)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
