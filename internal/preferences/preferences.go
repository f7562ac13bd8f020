// Package preferences reads and updates user settings: dark mode,
// display language and wheelchair-accessible routing.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// ErrUnsupportedLanguage is returned for a language the app has no
// translation for.
var ErrUnsupportedLanguage = errors.New("preferences: unsupported language")

// Supported lists the selectable languages, default first.
var Supported = []language.Tag{language.Portuguese, language.English, language.Spanish}

var matcher = language.NewMatcher(Supported)

// Store is the key/value persistence behind the service.
type Store interface {
	Preferences(ctx context.Context, userID string) (map[string]string, error)
	SetPreferences(ctx context.Context, userID string, values map[string]string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the user's settings. Values that are missing or cannot
// be read fall back to the defaults.
func (s *Service) Get(ctx context.Context, userID string) models.Preferences {
	prefs := models.DefaultPreferences()

	values, err := s.store.Preferences(ctx, userID)
	if err != nil {
		logging.WithContext(ctx).Warn("Unable to read preferences, using defaults",
			zap.String("user", userID), zap.Error(err))
		return prefs
	}

	if v, ok := values[models.PrefDarkMode]; ok {
		prefs.DarkMode = parseBool(v)
	}
	if v, ok := values[models.PrefLanguage]; ok {
		if lang, err := NormalizeLanguage(v); err == nil {
			prefs.Language = lang
		}
	}
	if v, ok := values[models.PrefWheelchairAccessible]; ok {
		prefs.WheelchairAccessible = parseBool(v)
	}
	return prefs
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// NormalizeLanguage parses a BCP 47 tag such as "pt-PT" or "en" and
// returns the base code of the supported language it names.
func NormalizeLanguage(s string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil || tag == language.Und {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}

	_, idx, confidence := matcher.Match(tag)
	if confidence < language.High {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	base, _ := Supported[idx].Base()
	return base.String(), nil
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	DarkMode             *bool   `json:"dark_mode"`
	Language             *string `json:"language"`
	WheelchairAccessible *bool   `json:"wheelchair_accessibility"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.DarkMode == nil && p.Language == nil && p.WheelchairAccessible == nil
}

// Apply validates and stores every field set in p, then returns the
// resulting settings. Nothing is stored when validation fails.
func (s *Service) Apply(ctx context.Context, userID string, p Patch) (models.Preferences, error) {
	values := make(map[string]string, 3)

	if p.DarkMode != nil {
		values[models.PrefDarkMode] = strconv.FormatBool(*p.DarkMode)
	}
	if p.Language != nil {
		lang, err := NormalizeLanguage(*p.Language)
		if err != nil {
			return models.Preferences{}, err
		}
		values[models.PrefLanguage] = lang
	}
	if p.WheelchairAccessible != nil {
		values[models.PrefWheelchairAccessible] = strconv.FormatBool(*p.WheelchairAccessible)
	}

	if len(values) > 0 {
		if err := s.store.SetPreferences(ctx, userID, values); err != nil {
			return models.Preferences{}, fmt.Errorf("save preferences: %w", err)
		}
	}
	return s.Get(ctx, userID), nil
}

func (s *Service) UpdateDarkMode(ctx context.Context, userID string, enabled bool) error {
	_, err := s.Apply(ctx, userID, Patch{DarkMode: &enabled})
	return err
}

func (s *Service) UpdateLanguage(ctx context.Context, userID, lang string) error {
	_, err := s.Apply(ctx, userID, Patch{Language: &lang})
	return err
}

func (s *Service) UpdateWheelchairAccessibility(ctx context.Context, userID string, enabled bool) error {
	_, err := s.Apply(ctx, userID, Patch{WheelchairAccessible: &enabled})
	return err
}
