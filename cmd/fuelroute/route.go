package main

import (
	"fmt"
	"os"

	"github.com/rubiojr/fuelroute/internal/selector"
	"github.com/rubiojr/fuelroute/pkg/api"
	"github.com/urfave/cli/v2"
)

const metersPerKm = 1000.0

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "Plan a route between two locations and list its fuel stops",
		Flags: []cli.Flag{
			csvFlag(),
			dbFlag(""),
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Start location",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "end",
				Usage:    "End location",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "gpx",
				Usage: "Write the route geometry to this GPX file",
			},
			routerFlag(),
			osrmURLFlag(),
			nominatimURLFlag(),
			googleMapsKeyFlag(),
		},
		Action: routeAction,
	}
}

func routeAction(c *cli.Context) error {
	ctx := c.Context
	logger := newLogger(c)
	start, end := c.String("start"), c.String("end")

	geocoder := api.NewGeocoder(c.String("nominatim-url"))
	from, err := geocoder.Geocode(ctx, start)
	if err != nil {
		return fmt.Errorf("error geocoding %q: %w", start, err)
	}
	to, err := geocoder.Geocode(ctx, end)
	if err != nil {
		return fmt.Errorf("error geocoding %q: %w", end, err)
	}

	router, err := newRouteProvider(c)
	if err != nil {
		return err
	}
	route, err := router.Route(ctx, from, to)
	if err != nil {
		return fmt.Errorf("error fetching route: %w", err)
	}

	source, storage, err := openCatalog(c, logger)
	if err != nil {
		return err
	}
	if storage != nil {
		defer storage.Close()
		if err := storage.LogRouteSearch(ctx, start, end); err != nil {
			logger.Error("Failed to log route search", "error", err)
		}
	}
	result := selector.New(source).Select(ctx, start, end)

	fmt.Printf("Route: %s (%s) -> %s (%s)\n", start, from, end, to)
	fmt.Printf("   Distance: %.1f km (geometry %.1f km)\n", route.DistanceMeters/metersPerKm, route.Length()/metersPerKm)
	fmt.Printf("   Duration: %.0f min\n", route.DurationSeconds/60)
	if key := c.String("google-maps-key"); key != "" {
		fmt.Printf("   Map: %s\n", api.MapURL(key, from, to))
	}
	fmt.Println()
	printStops(os.Stdout, result)

	if path := c.String("gpx"); path != "" {
		data, err := route.GPX(fmt.Sprintf("%s to %s", start, end))
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("error writing GPX file: %w", err)
		}
		fmt.Printf("Route written to %s\n", path)
	}

	return nil
}
