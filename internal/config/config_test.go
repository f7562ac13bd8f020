package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.ListenAddr)
	assert.Equal(t, "pt-PT", cfg.Maps.Language)
	assert.Equal(t, "country:PT", cfg.Maps.Components)
	assert.Equal(t, 40.64427, cfg.Maps.BiasLat)
	assert.Equal(t, -8.64554, cfg.Maps.BiasLng)
	assert.Equal(t, 10000, cfg.Maps.BiasRadius)
	assert.Equal(t, 350*time.Millisecond, cfg.Maps.Debounce)
	assert.Equal(t, 3, cfg.Maps.MinChars)
	assert.Equal(t, "gemini", cfg.Chat.Provider)
	assert.Equal(t, 24*time.Hour, cfg.GTFS.Refresh)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AVEIROBUS_LISTEN=:9999\nAVEIROBUS_CHAT_PROVIDER=openai\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("AVEIROBUS_LISTEN")
		os.Unsetenv("AVEIROBUS_CHAT_PROVIDER")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "openai", cfg.Chat.Provider)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("AVEIROBUS_GTFS_REFRESH", "soon")

	_, err := Load("")
	assert.Error(t, err)
}
