package store

import (
	"sort"
	"sync"
	"time"

	"github.com/joeshaw/aveiro-bus/internal/geo"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// Network is one complete snapshot of the static bus network, as
// produced by the GTFS loader.
type Network struct {
	Agencies  []*models.Agency
	Routes    []*models.Route
	Stops     []*models.Stop
	Trips     []*models.Trip
	StopTimes []*models.StopTime
	Shapes    []*models.ShapePoint

	Calendars     []*models.Calendar
	CalendarDates []*models.CalendarDate
}

// Store provides thread-safe access to the bus network
type Store struct {
	mu sync.RWMutex

	agencies map[string]*models.Agency
	routes   map[string]*models.Route
	stops    map[string]*models.Stop
	trips    map[string]*models.Trip
	shapes   map[string][]*models.ShapePoint // map[shapeID] ordered by sequence

	stopTimesByTrip map[string][]*models.StopTime // ordered by stop sequence
	stopsByRoute    map[string][]string           // map[routeID][]stopID
	tripsByRoute    map[string][]string           // map[routeID][]tripID
	shapesByRoute   map[string][]string           // map[routeID][]shapeID

	departuresByStop map[string][]*models.Departure // ordered by departure time
	services         *serviceCalendar

	lastUpdate time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	s.Replace(&Network{})
	return s
}

// Replace atomically swaps in a new network. Indexes are built
// outside the lock so readers are never blocked for long.
func (s *Store) Replace(n *Network) {
	agencies := make(map[string]*models.Agency, len(n.Agencies))
	for _, a := range n.Agencies {
		agencies[a.ID] = a
	}

	routes := make(map[string]*models.Route, len(n.Routes))
	for _, r := range n.Routes {
		routes[r.ID] = r
	}

	stops := make(map[string]*models.Stop, len(n.Stops))
	for _, st := range n.Stops {
		stops[st.ID] = st
	}

	trips := make(map[string]*models.Trip, len(n.Trips))
	tripsByRoute := make(map[string][]string)
	for _, t := range n.Trips {
		trips[t.ID] = t
		tripsByRoute[t.RouteID] = append(tripsByRoute[t.RouteID], t.ID)
	}

	stopTimesByTrip := make(map[string][]*models.StopTime)
	for _, st := range n.StopTimes {
		stopTimesByTrip[st.TripID] = append(stopTimesByTrip[st.TripID], st)
	}
	for _, sts := range stopTimesByTrip {
		sort.Slice(sts, func(i, j int) bool { return sts[i].StopSequence < sts[j].StopSequence })
	}

	shapes := make(map[string][]*models.ShapePoint)
	for _, p := range n.Shapes {
		shapes[p.ShapeID] = append(shapes[p.ShapeID], p)
	}
	for _, pts := range shapes {
		sort.Slice(pts, func(i, j int) bool { return pts[i].Sequence < pts[j].Sequence })
	}

	stopsByRoute := buildStopsByRoute(tripsByRoute, stopTimesByTrip)
	shapesByRoute := buildShapesByRoute(tripsByRoute, trips)
	buildRouteDirections(routes, trips)
	departuresByStop := buildDeparturesByStop(n.StopTimes, trips, routes)
	services := newServiceCalendar(n.Calendars, n.CalendarDates)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.agencies = agencies
	s.routes = routes
	s.stops = stops
	s.trips = trips
	s.shapes = shapes
	s.stopTimesByTrip = stopTimesByTrip
	s.stopsByRoute = stopsByRoute
	s.tripsByRoute = tripsByRoute
	s.shapesByRoute = shapesByRoute
	s.departuresByStop = departuresByStop
	s.services = services
	s.lastUpdate = time.Now()
}

// buildStopsByRoute orders each line's stops along its longest trip,
// then appends stops only served by shorter variants.
func buildStopsByRoute(tripsByRoute map[string][]string, stopTimesByTrip map[string][]*models.StopTime) map[string][]string {
	stopsByRoute := make(map[string][]string)

	for routeID, tripIDs := range tripsByRoute {
		ordered := make([]string, len(tripIDs))
		copy(ordered, tripIDs)
		sort.SliceStable(ordered, func(i, j int) bool {
			return len(stopTimesByTrip[ordered[i]]) > len(stopTimesByTrip[ordered[j]])
		})

		seen := make(map[string]bool)
		for _, tripID := range ordered {
			for _, st := range stopTimesByTrip[tripID] {
				if !seen[st.StopID] {
					seen[st.StopID] = true
					stopsByRoute[routeID] = append(stopsByRoute[routeID], st.StopID)
				}
			}
		}
	}

	return stopsByRoute
}

func buildShapesByRoute(tripsByRoute map[string][]string, trips map[string]*models.Trip) map[string][]string {
	shapesByRoute := make(map[string][]string)

	for routeID, tripIDs := range tripsByRoute {
		seen := make(map[string]bool)
		for _, tripID := range tripIDs {
			shapeID := trips[tripID].ShapeID
			if shapeID != "" && !seen[shapeID] {
				seen[shapeID] = true
				shapesByRoute[routeID] = append(shapesByRoute[routeID], shapeID)
			}
		}
		sort.Strings(shapesByRoute[routeID])
	}

	return shapesByRoute
}

// buildRouteDirections fills each route's destinations from trip
// headsigns, indexed by GTFS direction_id.
func buildRouteDirections(routes map[string]*models.Route, trips map[string]*models.Trip) {
	headsigns := make(map[string]map[int]map[string]int)

	for _, trip := range trips {
		if trip.Headsign == "" || trip.DirectionID < 0 || trip.DirectionID > 1 {
			continue
		}
		if headsigns[trip.RouteID] == nil {
			headsigns[trip.RouteID] = make(map[int]map[string]int)
		}
		if headsigns[trip.RouteID][trip.DirectionID] == nil {
			headsigns[trip.RouteID][trip.DirectionID] = make(map[string]int)
		}
		headsigns[trip.RouteID][trip.DirectionID][trip.Headsign]++
	}

	for routeID, directions := range headsigns {
		route := routes[routeID]
		if route == nil {
			continue
		}

		route.DirectionDestinations = make([]string, 2)
		for directionID, counts := range directions {
			// Most frequent headsign wins; ties break alphabetically.
			best, bestCount := "", 0
			for h, c := range counts {
				if c > bestCount || (c == bestCount && h < best) {
					best, bestCount = h, c
				}
			}
			route.DirectionDestinations[directionID] = best
		}
	}
}

func (s *Store) GetAgency(id string) *models.Agency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agencies[id]
}

func (s *Store) GetRoute(id string) *models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes[id]
}

// GetAllRoutes returns every line sorted by sort order, then short name.
func (s *Store) GetAllRoutes() []*models.Route {
	s.mu.RLock()
	routes := make([]*models.Route, 0, len(s.routes))
	for _, route := range s.routes {
		routes = append(routes, route)
	}
	s.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].SortOrder != routes[j].SortOrder {
			return routes[i].SortOrder < routes[j].SortOrder
		}
		if routes[i].ShortName != routes[j].ShortName {
			return routes[i].ShortName < routes[j].ShortName
		}
		return routes[i].ID < routes[j].ID
	})
	return routes
}

func (s *Store) GetStop(id string) *models.Stop {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stops[id]
}

// GetAllStops returns every stop sorted by ID.
func (s *Store) GetAllStops() []*models.Stop {
	s.mu.RLock()
	stops := make([]*models.Stop, 0, len(s.stops))
	for _, stop := range s.stops {
		stops = append(stops, stop)
	}
	s.mu.RUnlock()

	sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })
	return stops
}

// GetStopsByRoute returns the stops served by a line in travel order.
func (s *Store) GetStopsByRoute(routeID string) []*models.Stop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stopIDs := s.stopsByRoute[routeID]
	stops := make([]*models.Stop, 0, len(stopIDs))
	for _, id := range stopIDs {
		if stop, ok := s.stops[id]; ok {
			stops = append(stops, stop)
		}
	}
	return stops
}

// GetRoutesByStop returns the lines calling at a stop.
func (s *Store) GetRoutesByStop(stopID string) []*models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var routes []*models.Route
	for routeID, stopIDs := range s.stopsByRoute {
		for _, id := range stopIDs {
			if id == stopID {
				if route, ok := s.routes[routeID]; ok {
					routes = append(routes, route)
				}
				break
			}
		}
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes
}

// NearbyStop pairs a stop with its distance from a query point
type NearbyStop struct {
	Stop     *models.Stop
	Distance float64
}

// GetStopsNear returns stops within radius meters of center, nearest
// first. A limit of zero returns all of them.
func (s *Store) GetStopsNear(center models.LatLng, radius float64, limit int) []NearbyStop {
	s.mu.RLock()
	var nearby []NearbyStop
	for _, stop := range s.stops {
		if d := geo.Distance(center, stop.Position()); d <= radius {
			nearby = append(nearby, NearbyStop{Stop: stop, Distance: d})
		}
	}
	s.mu.RUnlock()

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].Distance < nearby[j].Distance })
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}

func (s *Store) GetTrip(id string) *models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trips[id]
}

func (s *Store) GetTripsByRoute(routeID string) []*models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tripIDs := s.tripsByRoute[routeID]
	trips := make([]*models.Trip, 0, len(tripIDs))
	for _, id := range tripIDs {
		trips = append(trips, s.trips[id])
	}
	return trips
}

// GetStopTimesByTrip returns a trip's calls ordered by stop sequence.
func (s *Store) GetStopTimesByTrip(tripID string) []*models.StopTime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopTimesByTrip[tripID]
}

// GetShape returns the ordered points of a shape.
func (s *Store) GetShape(shapeID string) []*models.ShapePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapes[shapeID]
}

// GetShapeIDs returns every shape ID, sorted.
func (s *Store) GetShapeIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.shapes))
	for id := range s.shapes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// GetShapeIDsByRoute returns the distinct shapes drawn by a line's trips.
func (s *Store) GetShapeIDsByRoute(routeID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapesByRoute[routeID]
}

// ShapePath returns a shape as a coordinate path.
func (s *Store) ShapePath(shapeID string) []models.LatLng {
	points := s.GetShape(shapeID)
	path := make([]models.LatLng, len(points))
	for i, p := range points {
		path[i] = models.LatLng{Lat: p.Latitude, Lng: p.Longitude}
	}
	return path
}

// LastUpdate returns when the network was last replaced.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Counts reports the size of the loaded network.
func (s *Store) Counts() (routes, stops, trips int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes), len(s.stops), len(s.trips)
}
