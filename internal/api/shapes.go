package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/geo"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// handleShapes handles the shapes collection endpoint
func (s *Server) handleShapes(w http.ResponseWriter, r *http.Request) {
	options := filter.NewOptions(r.URL.Query())

	var ids []string
	switch {
	case options.HasFilter("id"):
		ids = options.Values("id")
	case options.HasFilter("route"):
		seen := map[string]bool{}
		for _, routeID := range options.Values("route") {
			for _, id := range s.store.GetShapeIDsByRoute(routeID) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	default:
		ids = s.store.GetShapeIDs()
	}

	resources := make([]Resource, 0, len(ids))
	for _, id := range ids {
		if points := s.store.GetShape(id); len(points) > 0 {
			resources = append(resources, shapeToResource(id, points))
		}
	}
	resources = filter.Paginate(options, resources)

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/shapes",
		},
	}

	s.sendResponse(w, r, response)
}

// handleShape handles the shape detail endpoint
func (s *Server) handleShape(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	points := s.store.GetShape(id)
	if len(points) == 0 {
		s.sendErrorResponse(w, r, http.StatusNotFound, "Shape not found")
		return
	}

	response := Response{
		Data: shapeToResource(id, points),
		Links: map[string]string{
			"self": "/shapes/" + id,
		},
	}

	s.sendResponse(w, r, response)
}

// shapeToResource converts shape points to a JSON:API resource carrying
// both the encoded polyline and the raw points.
func shapeToResource(id string, points []*models.ShapePoint) Resource {
	path := make([]models.LatLng, len(points))
	pointsData := make([]map[string]any, len(points))

	for i, point := range points {
		path[i] = models.LatLng{Lat: point.Latitude, Lng: point.Longitude}
		pointsData[i] = map[string]any{
			"latitude":      point.Latitude,
			"longitude":     point.Longitude,
			"sequence":      point.Sequence,
			"dist_traveled": point.DistTraveled,
		}
	}

	attributes := map[string]any{
		"polyline": geo.EncodePolyline(path),
		"points":   pointsData,
	}
	if b, ok := geo.BoundsOf(path); ok {
		attributes["bounds"] = b
	}

	return Resource{
		Type:       "shape",
		ID:         id,
		Attributes: attributes,
		Links: map[string]string{
			"self": "/shapes/" + id,
		},
	}
}
