package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/gominatim"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/"
	geocodeCacheExpiry  = 30 * time.Minute
	geocodeCacheCleanup = 90 * time.Minute
)

// SearchFunc runs a geocoding query. It matches gominatim's SearchQuery.Get.
type SearchFunc func(q gominatim.SearchQuery) ([]gominatim.SearchResult, error)

// Geocoder resolves place names to coordinates through Nominatim.
// Results are cached by place name.
type Geocoder struct {
	search SearchFunc
	cache  *cache.Cache
}

// NewGeocoder creates a Nominatim geocoder. An empty server uses the public
// OpenStreetMap instance.
func NewGeocoder(server string) *Geocoder {
	if server == "" {
		server = DefaultNominatimURL
	}
	gominatim.SetServer(server)
	return NewGeocoderWithSearch(func(q gominatim.SearchQuery) ([]gominatim.SearchResult, error) {
		return q.Get()
	})
}

// NewGeocoderWithSearch creates a geocoder that resolves names with search.
func NewGeocoderWithSearch(search SearchFunc) *Geocoder {
	return &Geocoder{
		search: search,
		cache:  cache.New(geocodeCacheExpiry, geocodeCacheCleanup),
	}
}

// Geocode returns the coordinates of the best match for name.
func (g *Geocoder) Geocode(ctx context.Context, name string) (Point, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cached, ok := g.cache.Get(key); ok {
		return cached.(Point), nil
	}

	if err := ctx.Err(); err != nil {
		return Point{}, err
	}

	results, err := g.search(gominatim.SearchQuery{Q: name})
	if err != nil {
		return Point{}, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return Point{}, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
	}

	p, err := resultToPoint(results[0])
	if err != nil {
		return Point{}, err
	}
	g.cache.Set(key, p, cache.DefaultExpiration)

	return p, nil
}

func resultToPoint(result gominatim.SearchResult) (Point, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("error parsing latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("error parsing longitude: %w", err)
	}

	return Point{Lat: lat, Lng: lng}, nil
}
