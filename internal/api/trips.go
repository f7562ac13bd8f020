package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// handleTrip returns one trip with its timetable, the per-stop times of
// the ride shown after picking a departure.
func (s *Server) handleTrip(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	trip := s.store.GetTrip(id)
	if trip == nil {
		s.sendErrorResponse(w, r, http.StatusNotFound, "Trip not found")
		return
	}

	options := filter.NewOptions(r.URL.Query())
	stopTimes := s.store.GetStopTimesByTrip(trip.ID)

	response := Response{
		Data: s.tripToResource(trip, stopTimes),
	}

	var included []Resource
	if options.HasInclude("route") {
		if route := s.store.GetRoute(trip.RouteID); route != nil {
			included = append(included, routeToResource(route))
		}
	}
	if options.HasInclude("stops") {
		for _, st := range stopTimes {
			if stop := s.store.GetStop(st.StopID); stop != nil {
				included = append(included, stopToResource(stop))
			}
		}
	}
	if len(included) > 0 {
		response.Included = included
	}

	s.sendResponse(w, r, response)
}

func (s *Server) tripToResource(trip *models.Trip, stopTimes []*models.StopTime) Resource {
	calls := make([]map[string]any, len(stopTimes))
	for i, st := range stopTimes {
		call := map[string]any{
			"stop_id":        st.StopID,
			"stop_sequence":  st.StopSequence,
			"arrival_time":   st.ArrivalTime,
			"departure_time": st.DepartureTime,
		}
		if stop := s.store.GetStop(st.StopID); stop != nil {
			call["stop_name"] = stop.Name
		}
		calls[i] = call
	}

	return Resource{
		Type: "trip",
		ID:   trip.ID,
		Attributes: map[string]any{
			"headsign":              trip.Headsign,
			"direction_id":          trip.DirectionID,
			"wheelchair_accessible": trip.WheelchairAccessible,
			"stop_times":            calls,
		},
		Relationships: map[string]Relationship{
			"route": {Data: ResourceIdentifier{Type: "route", ID: trip.RouteID}},
		},
		Links: map[string]string{
			"self": "/trips/" + trip.ID,
		},
	}
}
