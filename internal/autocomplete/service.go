package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/maps"
)

// DefaultMinChars is the shortest input worth a lookup.
const DefaultMinChars = 3

// Places looks up predictions for a partial place name.
type Places interface {
	Autocomplete(ctx context.Context, input string) ([]maps.PlacePrediction, error)
}

type Service struct {
	places    Places
	debouncer *Debouncer
	minChars  int
}

func NewService(places Places, delay time.Duration, minChars int) *Service {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Service{
		places:    places,
		debouncer: NewDebouncer(delay),
		minChars:  minChars,
	}
}

// Suggest returns predictions for input once the session has stopped
// typing. Short inputs return an empty list without a lookup.
func (s *Service) Suggest(ctx context.Context, session, input string) ([]maps.PlacePrediction, error) {
	input = strings.TrimSpace(input)
	if utf8.RuneCountInString(input) < s.minChars {
		return []maps.PlacePrediction{}, nil
	}

	ctx, release, err := s.debouncer.Acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer release()

	predictions, err := s.places.Autocomplete(ctx, input)
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("autocomplete %q: %w", input, err)
	}

	logging.WithContext(ctx).Debug("Autocomplete lookup",
		zap.String("session", session),
		zap.Int("predictions", len(predictions)))

	return predictions, nil
}
