package api

import (
	"net/url"
)

const mapsEmbedDirectionsURL = "https://www.google.com/maps/embed/v1/directions"

// MapURL returns a Google Maps Embed link showing directions between two points.
func MapURL(apiKey string, from, to Point) string {
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("origin", from.String())
	q.Set("destination", to.String())
	return mapsEmbedDirectionsURL + "?" + q.Encode()
}
