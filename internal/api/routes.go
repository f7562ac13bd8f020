package api

import (
	"cmp"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

var routeSortFields = map[string]filter.CompareFunc[*models.Route]{
	"id":         func(a, b *models.Route) int { return cmp.Compare(a.ID, b.ID) },
	"short_name": func(a, b *models.Route) int { return cmp.Compare(a.ShortName, b.ShortName) },
	"long_name":  func(a, b *models.Route) int { return cmp.Compare(a.LongName, b.LongName) },
	"sort_order": func(a, b *models.Route) int { return cmp.Compare(a.SortOrder, b.SortOrder) },
}

// handleRoutes handles the bus lines collection endpoint
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	options := filter.NewOptions(r.URL.Query())

	routes := filter.Filter(s.store.GetAllRoutes(), (*models.Route).IsBus)

	if options.HasFilter("id") {
		ids := options.Values("id")
		routes = filter.Filter(routes, func(route *models.Route) bool {
			return filter.Contains(ids, route.ID)
		})
	}

	if options.HasFilter("type") {
		types := options.Values("type")
		routes = filter.Filter(routes, func(route *models.Route) bool {
			return filter.Contains(types, strconv.Itoa(route.Type))
		})
	}

	if err := filter.SortBy(options, routes, routeSortFields); err != nil {
		s.sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	routes = filter.Paginate(options, routes)

	resources := make([]Resource, len(routes))
	for i, route := range routes {
		resources[i] = routeToResource(route)
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/routes",
		},
	}
	for _, route := range routes {
		response.Included = append(response.Included, s.routeIncludes(options, route)...)
	}

	s.sendResponse(w, r, response)
}

// handleRoute handles the route detail endpoint
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	route := s.store.GetRoute(id)
	if route == nil || !route.IsBus() {
		s.sendErrorResponse(w, r, http.StatusNotFound, "Route not found")
		return
	}

	options := filter.NewOptions(r.URL.Query())

	response := Response{
		Data: routeToResource(route),
		Links: map[string]string{
			"self": "/routes/" + id,
		},
		Included: s.routeIncludes(options, route),
	}

	s.sendResponse(w, r, response)
}

func (s *Server) routeIncludes(options *filter.Options, route *models.Route) []Resource {
	var included []Resource
	if options.HasInclude("stops") {
		for _, stop := range s.store.GetStopsByRoute(route.ID) {
			included = append(included, stopToResource(stop))
		}
	}
	if options.HasInclude("shapes") {
		for _, id := range s.store.GetShapeIDsByRoute(route.ID) {
			included = append(included, shapeToResource(id, s.store.GetShape(id)))
		}
	}
	return included
}

// routeToResource converts a Route model to a JSON:API resource
func routeToResource(route *models.Route) Resource {
	attributes := map[string]any{
		"short_name":  route.ShortName,
		"long_name":   route.LongName,
		"description": route.Description,
		"type":        route.Type,
		"color":       route.Color,
		"text_color":  route.TextColor,
		"sort_order":  route.SortOrder,
	}
	if len(route.DirectionDestinations) > 0 {
		attributes["direction_destinations"] = route.DirectionDestinations
	}

	relationships := map[string]Relationship{
		"stops":  {Links: map[string]string{"related": "/stops?filter[route]=" + route.ID}},
		"shapes": {Links: map[string]string{"related": "/shapes?filter[route]=" + route.ID}},
	}
	if route.AgencyID != "" {
		relationships["agency"] = Relationship{Data: ResourceIdentifier{Type: "agency", ID: route.AgencyID}}
	}

	return Resource{
		Type:          "route",
		ID:            route.ID,
		Attributes:    attributes,
		Relationships: relationships,
		Links: map[string]string{
			"self": "/routes/" + route.ID,
		},
	}
}
