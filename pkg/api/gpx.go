package api

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"
)

// Length returns the length of the route geometry in meters.
func (r *Route) Length() float64 {
	var total float64
	for i := 1; i < len(r.Geometry); i++ {
		a, b := r.Geometry[i-1], r.Geometry[i]
		total += gpx.Distance2D(a.Lat, a.Lng, b.Lat, b.Lng, true)
	}
	return total
}

// GPX renders the route geometry as a single track GPX document.
func (r *Route) GPX(name string) ([]byte, error) {
	segment := gpx.GPXTrackSegment{}
	for _, p := range r.Geometry {
		segment.Points = append(segment.Points, gpx.GPXPoint{
			Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lng},
		})
	}

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: "fuelroute",
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}
	if n := len(r.Geometry); n > 0 {
		doc.Waypoints = []gpx.GPXPoint{
			{Point: gpx.Point{Latitude: r.Geometry[0].Lat, Longitude: r.Geometry[0].Lng}, Name: "start"},
			{Point: gpx.Point{Latitude: r.Geometry[n-1].Lat, Longitude: r.Geometry[n-1].Lng}, Name: "end"},
		}
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("error encoding GPX: %w", err)
	}
	return data, nil
}
