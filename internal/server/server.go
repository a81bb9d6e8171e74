// Package server exposes route planning with fuel stops over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/rubiojr/fuelroute/internal/gasdb"
	"github.com/rubiojr/fuelroute/internal/selector"
	"github.com/rubiojr/fuelroute/pkg/api"
)

const DefaultRateLimit = 20 // requests per minute and IP

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (api.Point, error)
}

// RouteProvider fetches a driving route between two points.
type RouteProvider interface {
	Route(ctx context.Context, from, to api.Point) (*api.Route, error)
}

// SearchLog records and reports route searches.
type SearchLog interface {
	LogRouteSearch(ctx context.Context, startCity, endCity string) error
	PopularRoutes(ctx context.Context, limit int) ([]gasdb.RouteSearch, error)
}

type Deps struct {
	Selector   *selector.Selector
	Geocoder   Geocoder
	Router     RouteProvider
	Searches   SearchLog // optional
	MapsAPIKey string
	// RateLimit is the number of requests allowed per minute and client IP.
	// Zero or less disables rate limiting.
	RateLimit int
	// Logger enables request logging when set.
	Logger *httplog.Logger
}

type Server struct {
	selector   *selector.Selector
	geocoder   Geocoder
	router     RouteProvider
	searches   SearchLog
	mapsAPIKey string
	rateLimit  int
	httpLog    *httplog.Logger
	log        *slog.Logger
}

func New(deps Deps) *Server {
	s := &Server{
		selector:   deps.Selector,
		geocoder:   deps.Geocoder,
		router:     deps.Router,
		searches:   deps.Searches,
		mapsAPIKey: deps.MapsAPIKey,
		rateLimit:  deps.RateLimit,
		httpLog:    deps.Logger,
		log:        slog.New(slog.DiscardHandler),
	}
	if deps.Logger != nil {
		s.log = deps.Logger.Logger
	}
	return s
}

// Routes returns the HTTP handler with all endpoints and middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	if s.httpLog != nil {
		r.Use(httplog.RequestLogger(s.httpLog))
	}
	r.Use(middleware.Recoverer)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}

	r.Post("/optimal_route", s.handleOptimalRoute)
	r.Get("/fuel_stops", s.handleFuelStops)
	r.Get("/popular_routes", s.handlePopularRoutes)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
