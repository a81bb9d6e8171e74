// Package selector picks the fuel stops for a route and totals their price.
//
// Stations are matched by case-insensitive equality of their city with one
// of the two route endpoints; nothing along the route geometry is considered.
package selector

import (
	"context"
	"sort"
	"strings"

	"github.com/rubiojr/fuelroute/internal/catalog"
)

// Result is the selection handed to the route response.
type Result struct {
	Stops     []catalog.Station `json:"fuel_stops"`
	TotalCost float64           `json:"total_fuel_cost"`
}

// SelectStops returns the stations located in startCity or endCity, cheapest
// first. Stations with equal prices keep their catalog order.
func SelectStops(c *catalog.Catalog, startCity, endCity string) Result {
	match := map[string]struct{}{
		strings.ToLower(startCity): {},
		strings.ToLower(endCity):   {},
	}

	stops := []catalog.Station{}
	if c != nil {
		for _, station := range c.Stations() {
			if _, ok := match[strings.ToLower(station.City)]; ok {
				stops = append(stops, station)
			}
		}
	}

	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].Price < stops[j].Price
	})

	var total float64
	for _, s := range stops {
		total += s.Price
	}

	return Result{Stops: stops, TotalCost: total}
}

// Selector runs selections against an injected catalog source.
type Selector struct {
	source catalog.Source
}

// New returns a Selector that loads its catalog from source on every selection.
func New(source catalog.Source) *Selector {
	return &Selector{source: source}
}

// Select loads the current catalog and selects the stops for the endpoints.
func (s *Selector) Select(ctx context.Context, startCity, endCity string) Result {
	return SelectStops(s.source.Load(ctx), startCity, endCity)
}
