package directions

import (
	"strings"

	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/maps"
)

// IsBusStep reports whether step is a ride on a bus. The vehicle name
// check catches feeds that report buses under a generic vehicle type.
func IsBusStep(step maps.Step) bool {
	if step.TravelMode != maps.TravelModeTransit || step.TransitDetails == nil {
		return false
	}
	vehicle := step.TransitDetails.Line.Vehicle
	return vehicle.Type == "BUS" || strings.Contains(strings.ToLower(vehicle.Name), "bus")
}

// HasBusStep reports whether any leg of route contains a bus ride.
func HasBusStep(route maps.Route) bool {
	return filter.Any(route.Legs, func(leg maps.Leg) bool {
		return filter.Any(leg.Steps, IsBusStep)
	})
}

// BusRoutes keeps the routes that use at least one bus, in order.
func BusRoutes(routes []maps.Route) []maps.Route {
	return filter.Filter(routes, HasBusStep)
}
