package api

import (
	"net/http"
	"time"
)

// handleIndex handles the index route
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	routes, stops, trips := s.store.Counts()

	response := Response{
		Data: map[string]any{
			"version": "1.0.0",
			"name":    "AveiroBus API",
			"time":    s.now().Format(time.RFC3339),
		},
		Links: map[string]string{
			"routes":       "/routes",
			"stops":        "/stops",
			"shapes":       "/shapes",
			"lines":        "/lines.kml",
			"directions":   "/directions",
			"autocomplete": "/places/autocomplete",
			"chat":         "/chat/{session}",
			"preferences":  "/users/{id}/preferences",
			"notices":      "/notices",
		},
		Meta: map[string]any{
			"routes": routes,
			"stops":  stops,
			"trips":  trips,
		},
	}
	if last := s.store.LastUpdate(); !last.IsZero() {
		response.Meta["network_updated_at"] = last.UTC().Format(time.RFC3339)
	}
	if s.registry != nil {
		response.Links["metrics"] = "/metrics"
	}

	s.sendResponse(w, r, response)
}
