// Package geo holds the coordinate helpers shared by the map views:
// Google encoded polylines, bounding boxes and distances.
package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

// DecodePolyline expands a Google encoded polyline into its points.
// An empty string decodes to an empty path.
func DecodePolyline(encoded string) ([]models.LatLng, error) {
	if encoded == "" {
		return []models.LatLng{}, nil
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	path := make([]models.LatLng, len(coords))
	for i, c := range coords {
		path[i] = models.LatLng{Lat: round5(c[0]), Lng: round5(c[1])}
	}
	return path, nil
}

// EncodePolyline is the inverse of DecodePolyline at 1e-5 precision.
func EncodePolyline(path []models.LatLng) string {
	if len(path) == 0 {
		return ""
	}

	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// round5 removes float noise left by the 1e5 scaling.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
