// Package directions searches bus itineraries between two places and
// prepares them for display.
package directions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// ErrMissingPlace is returned when origin or destination is blank.
var ErrMissingPlace = errors.New("directions: origin and destination are required")

// Finder fetches alternative routes from a directions provider.
type Finder interface {
	Directions(ctx context.Context, req maps.DirectionsRequest) ([]maps.Route, error)
}

type Service struct {
	finder Finder
}

func NewService(finder Finder) *Service {
	return &Service{finder: finder}
}

// Query is a user's itinerary search
type Query struct {
	Origin      string
	Destination string
	Wheelchair  bool
	DepartAt    time.Time
	ArriveBy    time.Time
	Language    string
}

// Result holds the bus itineraries found. When there are none, Outcome
// and Message say why.
type Result struct {
	Itineraries []Itinerary `json:"itineraries"`
	Outcome     Outcome     `json:"outcome"`
	Message     string      `json:"message,omitempty"`
	Fetched     int         `json:"fetched"`
}

// Search fetches routes for q and keeps those that use a bus.
func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	q.Origin = strings.TrimSpace(q.Origin)
	q.Destination = strings.TrimSpace(q.Destination)
	if q.Origin == "" || q.Destination == "" {
		return nil, ErrMissingPlace
	}

	routes, err := s.finder.Directions(ctx, maps.DirectionsRequest{
		Origin:               q.Origin,
		Destination:          q.Destination,
		WheelchairAccessible: q.Wheelchair,
		DepartureTime:        q.DepartAt,
		ArrivalTime:          q.ArriveBy,
		Language:             vendorLanguage(q.Language),
	})
	if err != nil && !maps.IsZeroResults(err) {
		return nil, fmt.Errorf("search directions: %w", err)
	}

	busRoutes := BusRoutes(routes)
	result := &Result{
		Itineraries: make([]Itinerary, 0, len(busRoutes)),
		Outcome:     outcome(q.Wheelchair, len(routes), len(busRoutes)),
		Fetched:     len(routes),
	}
	for _, route := range busRoutes {
		result.Itineraries = append(result.Itineraries, NewItinerary(route))
	}
	result.Message = result.Outcome.Message(q.Language)

	logging.WithContext(ctx).Debug("Directions search completed",
		zap.Int("fetched", len(routes)),
		zap.Int("bus_routes", len(busRoutes)),
		zap.String("outcome", string(result.Outcome)))

	return result, nil
}

// vendorLanguage is the language asked of the directions provider. The
// default language is left to the client's configured regional locale.
func vendorLanguage(lang string) string {
	if lang == models.DefaultLanguage {
		return ""
	}
	return lang
}

func outcome(wheelchair bool, fetched, bus int) Outcome {
	switch {
	case bus > 0:
		return OutcomeFound
	case wheelchair:
		return OutcomeNoAccessibleRoute
	case fetched == 0:
		return OutcomeNoRoutes
	default:
		return OutcomeNoBusRoute
	}
}
