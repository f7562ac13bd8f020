package preferences

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/storage"
)

type brokenStore struct{}

func (brokenStore) Preferences(context.Context, string) (map[string]string, error) {
	return nil, errors.New("disk I/O error")
}

func (brokenStore) SetPreferences(context.Context, string, map[string]string) error {
	return errors.New("disk I/O error")
}

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func TestGetDefaults(t *testing.T) {
	svc := newService(t)

	prefs := svc.Get(context.Background(), "u1")
	assert.Equal(t, models.Preferences{Language: "pt"}, prefs)
}

func TestGetStorageErrorFallsBack(t *testing.T) {
	svc := NewService(brokenStore{})

	prefs := svc.Get(context.Background(), "u1")
	assert.Equal(t, models.DefaultPreferences(), prefs)
}

func TestUpdates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateDarkMode(ctx, "u1", true))
	require.NoError(t, svc.UpdateLanguage(ctx, "u1", "en-GB"))
	require.NoError(t, svc.UpdateWheelchairAccessibility(ctx, "u1", true))

	assert.Equal(t, models.Preferences{DarkMode: true, Language: "en", WheelchairAccessible: true}, svc.Get(ctx, "u1"))
	assert.Equal(t, models.DefaultPreferences(), svc.Get(ctx, "u2"), "users do not share settings")

	require.NoError(t, svc.UpdateDarkMode(ctx, "u1", false))
	assert.False(t, svc.Get(ctx, "u1").DarkMode)
}

func TestApplyPartial(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	on := true
	prefs, err := svc.Apply(ctx, "u1", Patch{WheelchairAccessible: &on})
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{Language: "pt", WheelchairAccessible: true}, prefs)

	lang := "es"
	prefs, err = svc.Apply(ctx, "u1", Patch{Language: &lang})
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{Language: "es", WheelchairAccessible: true}, prefs)

	prefs, err = svc.Apply(ctx, "u1", Patch{})
	require.NoError(t, err)
	assert.Equal(t, "es", prefs.Language)
}

func TestApplyRejectsUnsupportedLanguage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	on := true
	lang := "de"
	_, err := svc.Apply(ctx, "u1", Patch{DarkMode: &on, Language: &lang})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.False(t, svc.Get(ctx, "u1").DarkMode, "nothing stored on validation failure")
}

func TestApplyStorageError(t *testing.T) {
	svc := NewService(brokenStore{})

	on := true
	_, err := svc.Apply(context.Background(), "u1", Patch{DarkMode: &on})
	assert.Error(t, err)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"pt", "pt", false},
		{"pt-PT", "pt", false},
		{"en", "en", false},
		{"en-US", "en", false},
		{"es", "es", false},
		{"de", "", true},
		{"", "", true},
		{"not a tag", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeLanguage(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	on := false
	assert.False(t, Patch{DarkMode: &on}.Empty())
}
