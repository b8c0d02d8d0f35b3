package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://admin.despairhardware.com", cfg.AdminURL)
	assert.Equal(t, 2*time.Second, cfg.PollActive)
	assert.Equal(t, 10*time.Second, cfg.PollIdle)
	assert.Equal(t, 30*time.Second, cfg.IdleAfter)
	assert.True(t, cfg.WSEnabled)
	assert.Equal(t, 60*time.Second, cfg.WSStaleAfter)
	assert.Equal(t, 800*time.Millisecond, cfg.LongPress)
	assert.Equal(t, 80, cfg.Brightness)
	assert.Len(t, cfg.TickerPresets, 4)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLL_ACTIVE_INTERVAL", "1s")
	t.Setenv("BRIGHTNESS", "60")
	t.Setenv("STATION_FILTER", "TV 1")
	t.Setenv("WEBSOCKET_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.PollActive)
	assert.Equal(t, 60, cfg.Brightness)
	assert.Equal(t, "TV 1", cfg.StationFilter)
	assert.False(t, cfg.WSEnabled)
}

func TestLoadRejectsBadBrightness(t *testing.T) {
	t.Setenv("BRIGHTNESS", "150")
	_, err := Load()
	require.Error(t, err)
}

func TestTickerPresetsOverride(t *testing.T) {
	t.Setenv("TICKER_PRESETS", `[{"label":"Lunch","message":"LUNCH BREAK","duration":15}]`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.TickerPresets, 1)
	assert.Equal(t, "Lunch", cfg.TickerPresets[0].Label)
	assert.Equal(t, 15, cfg.TickerPresets[0].Duration)
}

func TestTickerPresetsBadJSON(t *testing.T) {
	t.Setenv("TICKER_PRESETS", "{nope")
	_, err := Load()
	require.Error(t, err)
}

func TestRedactedHidesToken(t *testing.T) {
	cfg := &Config{AdminURL: "https://x", APIToken: "secret"}
	out := cfg.Redacted()
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "[set]")
}
