package geo

import (
	"math"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

const earthRadiusMeters = 6371008.8

// BoundsOf returns the smallest box containing every point of path.
// ok is false for an empty path.
func BoundsOf(path []models.LatLng) (b models.Bounds, ok bool) {
	if len(path) == 0 {
		return models.Bounds{}, false
	}

	b.Northeast = path[0]
	b.Southwest = path[0]
	for _, p := range path[1:] {
		b.Northeast.Lat = math.Max(b.Northeast.Lat, p.Lat)
		b.Northeast.Lng = math.Max(b.Northeast.Lng, p.Lng)
		b.Southwest.Lat = math.Min(b.Southwest.Lat, p.Lat)
		b.Southwest.Lng = math.Min(b.Southwest.Lng, p.Lng)
	}
	return b, true
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b models.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
