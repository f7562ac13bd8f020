package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/exporter"
	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/preferences"
)

const icsContentType = "text/calendar; charset=utf-8"

// handleDirections searches bus itineraries. The wheelchair flag and the
// language default to the stored preferences of ?user= when given.
func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	if s.directions == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}

	q, err := s.directionsQuery(r)
	if err != nil {
		s.sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "ics", "kml":
	default:
		s.sendErrorResponse(w, r, http.StatusBadRequest, "format must be json, ics or kml")
		return
	}

	result, err := s.directions.Search(r.Context(), q)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	if format == "ics" || format == "kml" {
		s.sendItineraryFile(w, r, result, format)
		return
	}

	resources := make([]Resource, len(result.Itineraries))
	for i, it := range result.Itineraries {
		resources[i] = Resource{
			Type:       "itinerary",
			ID:         strconv.Itoa(i),
			Attributes: it,
		}
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": r.URL.RequestURI(),
		},
		Meta: map[string]any{
			"outcome":    result.Outcome,
			"fetched":    result.Fetched,
			"wheelchair": q.Wheelchair,
			"language":   q.Language,
		},
	}
	if result.Message != "" {
		response.Meta["message"] = result.Message
	}

	s.sendResponse(w, r, response)
}

func (s *Server) directionsQuery(r *http.Request) (directions.Query, error) {
	params := r.URL.Query()
	q := directions.Query{
		Origin:      params.Get("origin"),
		Destination: params.Get("destination"),
		Language:    models.DefaultLanguage,
	}

	if user := params.Get("user"); user != "" && s.preferences != nil {
		prefs := s.preferences.Get(r.Context(), user)
		q.Wheelchair = prefs.WheelchairAccessible
		q.Language = prefs.Language
	}

	if v := params.Get("wheelchair"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("wheelchair must be true or false")
		}
		q.Wheelchair = b
	}
	if v := params.Get("lang"); v != "" {
		lang, err := preferences.NormalizeLanguage(v)
		if err != nil {
			return q, err
		}
		q.Language = lang
	}

	var err error
	if q.DepartAt, err = parseTimeParam(params.Get("depart_at")); err != nil {
		return q, fmt.Errorf("depart_at: %w", err)
	}
	if q.ArriveBy, err = parseTimeParam(params.Get("arrive_by")); err != nil {
		return q, fmt.Errorf("arrive_by: %w", err)
	}
	if !q.DepartAt.IsZero() && !q.ArriveBy.IsZero() {
		return q, fmt.Errorf("depart_at and arrive_by are mutually exclusive")
	}

	return q, nil
}

func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected an RFC 3339 time")
	}
	return t, nil
}

// sendItineraryFile exports one itinerary, chosen with ?itinerary=n.
func (s *Server) sendItineraryFile(w http.ResponseWriter, r *http.Request, result *directions.Result, format string) {
	idx := 0
	if v := r.URL.Query().Get("itinerary"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.sendErrorResponse(w, r, http.StatusBadRequest, "itinerary must be a non-negative index")
			return
		}
		idx = n
	}
	if idx >= len(result.Itineraries) {
		msg := result.Message
		if msg == "" {
			msg = "Itinerary not found"
		}
		s.sendErrorResponse(w, r, http.StatusNotFound, msg)
		return
	}
	it := result.Itineraries[idx]

	var (
		buf      bytes.Buffer
		err      error
		ctype    string
		filename string
	)
	switch format {
	case "ics":
		err = exporter.WriteItineraryICS(&buf, it, s.now())
		ctype, filename = icsContentType, "itinerary.ics"
	default:
		err = exporter.WriteItineraryKML(&buf, it)
		ctype, filename = kmlContentType, "itinerary.kml"
	}
	if err != nil {
		logging.WithContext(r.Context()).Error("Error exporting itinerary", zap.String("format", format), zap.Error(err))
		s.sendErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(buf.Bytes())
}
