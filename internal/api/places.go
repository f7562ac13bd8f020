package api

import (
	"net/http"
)

// handleAutocomplete suggests places for ?input=. Requests sharing a
// ?session= are debounced, and a request overtaken by a newer one
// answers 409.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	if s.places == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}

	params := r.URL.Query()
	predictions, err := s.places.Suggest(r.Context(), params.Get("session"), params.Get("input"))
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	resources := make([]Resource, len(predictions))
	for i, p := range predictions {
		resources[i] = Resource{
			Type: "place",
			ID:   p.PlaceID,
			Attributes: map[string]any{
				"description":    p.Description,
				"main_text":      p.StructuredFormatting.MainText,
				"secondary_text": p.StructuredFormatting.SecondaryText,
				"types":          p.Types,
			},
		}
	}

	s.sendResponse(w, r, Response{
		Data: resources,
		Links: map[string]string{
			"self": "/places/autocomplete",
		},
	})
}
