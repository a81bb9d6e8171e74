package api

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationNotFound is returned when a place name has no geocoding results.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoRoute is returned when the routing service finds no route.
	ErrNoRoute = errors.New("no route found")
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the point as "lat,lng".
func (p Point) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lng)
}

// Route is a driving route between two points.
type Route struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Geometry        []Point `json:"-"`
}

// osrmResponse is the subset of the OSRM route service response we use.
type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"`
	} `json:"geometry"`
}
