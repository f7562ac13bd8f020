package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/preferences"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	if s.preferences == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}
	user := mux.Vars(r)["id"]

	prefs := s.preferences.Get(r.Context(), user)
	s.sendResponse(w, r, Response{
		Data: preferencesToResource(user, prefs),
	})
}

// handlePatchPreferences updates any of dark_mode, language and
// wheelchair_accessibility. The body is either the bare attributes or a
// JSON:API document wrapping them.
func (s *Server) handlePatchPreferences(w http.ResponseWriter, r *http.Request) {
	if s.preferences == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}
	user := mux.Vars(r)["id"]

	var body struct {
		preferences.Patch
		Data *struct {
			Type       string            `json:"type"`
			ID         string            `json:"id"`
			Attributes preferences.Patch `json:"attributes"`
		} `json:"data"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.sendErrorResponse(w, r, http.StatusBadRequest, "Body must be a JSON object of preferences")
		return
	}
	patch := body.Patch
	if body.Data != nil {
		patch = body.Data.Attributes
	}
	if patch.Empty() {
		s.sendErrorResponse(w, r, http.StatusBadRequest, "No preference to update")
		return
	}

	prefs, err := s.preferences.Apply(r.Context(), user, patch)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	s.sendResponse(w, r, Response{
		Data: preferencesToResource(user, prefs),
	})
}

func preferencesToResource(user string, prefs models.Preferences) Resource {
	return Resource{
		Type:       "preferences",
		ID:         user,
		Attributes: prefs,
		Links: map[string]string{
			"self": "/users/" + user + "/preferences",
		},
	}
}
