package exporter

import (
	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/store"
)

// NetworkLines collects every bus line in st with its shapes and stops.
func NetworkLines(st *store.Store) []Line {
	routes := filter.Filter(st.GetAllRoutes(), (*models.Route).IsBus)

	lines := make([]Line, 0, len(routes))
	for _, route := range routes {
		line := Line{Route: route, Stops: st.GetStopsByRoute(route.ID)}
		for _, id := range st.GetShapeIDsByRoute(route.ID) {
			line.Shapes = append(line.Shapes, st.ShapePath(id))
		}
		lines = append(lines, line)
	}
	return lines
}
