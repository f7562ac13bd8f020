package api

import (
	"cmp"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/store"
)

const (
	defaultNearRadius = 500.0
	defaultDepartures = 10
)

// handleStops handles the stops collection endpoint
func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	options := filter.NewOptions(r.URL.Query())

	stops := s.store.GetAllStops()
	distances := map[string]float64{}

	if options.HasFilter("route") {
		var routeStops []*models.Stop
		seen := map[string]bool{}
		for _, routeID := range options.Values("route") {
			for _, stop := range s.store.GetStopsByRoute(routeID) {
				if !seen[stop.ID] {
					seen[stop.ID] = true
					routeStops = append(routeStops, stop)
				}
			}
		}
		stops = routeStops
	}

	if options.HasFilter("near") {
		center, radius, err := parseNear(options.Values("near"))
		if err != nil {
			s.sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}

		allowed := map[string]bool{}
		for _, stop := range stops {
			allowed[stop.ID] = true
		}

		stops = stops[:0:0]
		for _, near := range s.store.GetStopsNear(center, radius, 0) {
			if allowed[near.Stop.ID] {
				stops = append(stops, near.Stop)
				distances[near.Stop.ID] = near.Distance
			}
		}
	}

	if options.HasFilter("id") {
		ids := options.Values("id")
		stops = filter.Filter(stops, func(stop *models.Stop) bool {
			return filter.Contains(ids, stop.ID)
		})
	}

	sortFields := map[string]filter.CompareFunc[*models.Stop]{
		"id":       func(a, b *models.Stop) int { return cmp.Compare(a.ID, b.ID) },
		"name":     func(a, b *models.Stop) int { return cmp.Compare(a.Name, b.Name) },
		"distance": func(a, b *models.Stop) int { return cmp.Compare(distances[a.ID], distances[b.ID]) },
	}
	if err := filter.SortBy(options, stops, sortFields); err != nil {
		s.sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stops = filter.Paginate(options, stops)

	resources := make([]Resource, len(stops))
	for i, stop := range stops {
		resources[i] = stopToResource(stop)
		if d, ok := distances[stop.ID]; ok {
			resources[i].Attributes.(map[string]any)["distance"] = d
		}
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/stops",
		},
	}

	s.sendResponse(w, r, response)
}

// parseNear reads "lat,lng[,radius]".
func parseNear(values []string) (models.LatLng, float64, error) {
	if len(values) < 2 || len(values) > 3 {
		return models.LatLng{}, 0, fmt.Errorf("filter[near] must be lat,lng[,radius]")
	}

	lat, err := strconv.ParseFloat(values[0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.LatLng{}, 0, fmt.Errorf("invalid latitude %q", values[0])
	}
	lng, err := strconv.ParseFloat(values[1], 64)
	if err != nil || lng < -180 || lng > 180 {
		return models.LatLng{}, 0, fmt.Errorf("invalid longitude %q", values[1])
	}

	radius := defaultNearRadius
	if len(values) == 3 {
		radius, err = strconv.ParseFloat(values[2], 64)
		if err != nil || radius <= 0 {
			return models.LatLng{}, 0, fmt.Errorf("invalid radius %q", values[2])
		}
	}
	return models.LatLng{Lat: lat, Lng: lng}, radius, nil
}

// handleStop handles the stop detail endpoint
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	stop := s.store.GetStop(id)
	if stop == nil {
		s.sendErrorResponse(w, r, http.StatusNotFound, "Stop not found")
		return
	}

	resource := stopToResource(stop)
	routes := s.store.GetRoutesByStop(id)
	ids := make([]ResourceIdentifier, len(routes))
	for i, route := range routes {
		ids[i] = ResourceIdentifier{Type: "route", ID: route.ID}
	}
	resource.Relationships = map[string]Relationship{
		"routes":     {Data: ids},
		"departures": {Links: map[string]string{"related": "/stops/" + id + "/departures"}},
	}

	response := Response{
		Data: resource,
		Links: map[string]string{
			"self": "/stops/" + id,
		},
	}

	s.sendResponse(w, r, response)
}

// handleDepartures lists the next scheduled departures at a stop.
// Without ?after=HH:MM it starts from the current time in the network's
// time zone, and without ?date=YYYY-MM-DD from today.
func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if s.store.GetStop(id) == nil {
		s.sendErrorResponse(w, r, http.StatusNotFound, "Stop not found")
		return
	}

	now := s.now().In(s.location)
	day := now
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, s.location)
		if err != nil {
			s.sendErrorResponse(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}

	after := secondsOfDay(now)
	if v := r.URL.Query().Get("after"); v != "" {
		secs, err := store.ParseClock(v)
		if err != nil {
			s.sendErrorResponse(w, r, http.StatusBadRequest, "after must be HH:MM")
			return
		}
		after = secs
	}

	options := filter.NewOptions(r.URL.Query())
	limit := options.Limit
	if limit == 0 {
		limit = defaultDepartures
	}

	departures := s.store.GetDepartures(id, day, after, limit)
	resources := make([]Resource, len(departures))
	for i, d := range departures {
		resources[i] = departureToResource(d)
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/stops/" + id + "/departures",
		},
		Meta: map[string]any{
			"after": store.FormatClock(after),
			"date":  day.Format(time.DateOnly),
		},
	}

	s.sendResponse(w, r, response)
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// stopToResource converts a Stop model to a JSON:API resource
func stopToResource(stop *models.Stop) Resource {
	return Resource{
		Type: "stop",
		ID:   stop.ID,
		Attributes: map[string]any{
			"code":                stop.Code,
			"name":                stop.Name,
			"description":         stop.Description,
			"latitude":            stop.Latitude,
			"longitude":           stop.Longitude,
			"location_type":       stop.LocationType,
			"wheelchair_boarding": stop.WheelchairBoarding,
		},
		Links: map[string]string{
			"self": "/stops/" + stop.ID,
		},
	}
}

func departureToResource(d *models.Departure) Resource {
	return Resource{
		Type: "departure",
		ID:   d.TripID + "-" + d.StopID,
		Attributes: map[string]any{
			"line":           d.Line,
			"headsign":       d.Headsign,
			"departure_time": d.DepartureTime,
			"service_date":   d.ServiceDate,
		},
		Relationships: map[string]Relationship{
			"route": {Data: ResourceIdentifier{Type: "route", ID: d.RouteID}},
			"stop":  {Data: ResourceIdentifier{Type: "stop", ID: d.StopID}},
			"trip":  {Data: ResourceIdentifier{Type: "trip", ID: d.TripID}},
		},
	}
}
