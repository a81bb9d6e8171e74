package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/fuelroute/internal/catalog"
	"github.com/rubiojr/fuelroute/internal/selector"
	"github.com/rubiojr/fuelroute/internal/server"
	"github.com/rubiojr/fuelroute/pkg/api"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the route planning HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   "127.0.0.1:8080",
				EnvVars: []string{"FUELROUTE_ADDR"},
			},
			csvFlag(),
			dbFlag(""),
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "How long a loaded fuel price catalog is reused (0 reloads on every request)",
				Value:   catalog.DefaultCacheTTL,
				EnvVars: []string{"FUELROUTE_CACHE_TTL"},
			},
			&cli.IntFlag{
				Name:    "rate-limit",
				Usage:   "Requests per minute allowed per client IP (0 disables)",
				Value:   server.DefaultRateLimit,
				EnvVars: []string{"FUELROUTE_RATE_LIMIT"},
			},
			&cli.BoolFlag{
				Name:    "json-logs",
				Usage:   "Log requests as JSON",
				EnvVars: []string{"FUELROUTE_JSON_LOGS"},
			},
			routerFlag(),
			osrmURLFlag(),
			nominatimURLFlag(),
			googleMapsKeyFlag(),
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := httplog.NewLogger("fuelroute", httplog.Options{
		JSON:            c.Bool("json-logs"),
		LogLevel:        level,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	source, storage, err := openCatalog(c, logger.Logger)
	if err != nil {
		return err
	}
	if storage != nil {
		defer storage.Close()
	}

	if ttl := c.Duration("cache-ttl"); ttl > 0 {
		source = catalog.NewCachedSource(source, ttl, logger.Logger)
	}

	router, err := newRouteProvider(c)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Selector:   selector.New(source),
		Geocoder:   api.NewGeocoder(c.String("nominatim-url")),
		Router:     router,
		MapsAPIKey: c.String("google-maps-key"),
		RateLimit:  c.Int("rate-limit"),
		Logger:     logger,
	}
	if storage != nil {
		deps.Searches = storage
	}

	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           server.New(deps).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", "error", err)
		}
	}()

	logger.Info("Starting server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}

func routerFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "router",
		Usage:   "Routing service: osrm or google",
		Value:   "osrm",
		EnvVars: []string{"FUELROUTE_ROUTER"},
	}
}

func osrmURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "osrm-url",
		Usage:   "OSRM route service base URL",
		Value:   api.DefaultOSRMURL,
		EnvVars: []string{"FUELROUTE_OSRM_URL"},
	}
}

func nominatimURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "nominatim-url",
		Usage:   "Nominatim geocoding server",
		Value:   api.DefaultNominatimURL,
		EnvVars: []string{"FUELROUTE_NOMINATIM_URL"},
	}
}

func googleMapsKeyFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "google-maps-key",
		Usage:   "Google Maps API key used for map links and the google router",
		EnvVars: []string{"GOOGLEMAPS_API_KEY"},
	}
}

func newRouteProvider(c *cli.Context) (server.RouteProvider, error) {
	switch c.String("router") {
	case "osrm":
		return api.NewOSRM(c.String("osrm-url")), nil
	case "google":
		key := c.String("google-maps-key")
		if key == "" {
			return nil, errors.New("the google router requires a Google Maps API key")
		}
		g, err := api.NewGoogleDirections(key)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown router %q", c.String("router"))
	}
}
