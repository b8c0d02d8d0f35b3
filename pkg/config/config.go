package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// TickerPreset is a canned message for the venue ticker display.
type TickerPreset struct {
	Label    string `json:"label"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

type Config struct {
	AdminURL      string
	APIToken      string
	StationFilter string // e.g. "TV 1" to only surface that station's matches
	Brightness    int

	// Pull cadence. Active kicks in on any key press, idle after
	// IdleAfter without input.
	PollActive time.Duration
	PollIdle   time.Duration
	IdleAfter  time.Duration

	// Push channel.
	WSEnabled        bool
	WSReconnectDelay time.Duration
	WSMaxReconnect   time.Duration
	WSStaleAfter     time.Duration

	LongPress time.Duration

	TickerPresets []TickerPreset
}

func DefaultPresets() []TickerPreset {
	return []TickerPreset{
		{Label: "5m Break", Message: "5 MINUTE BREAK", Duration: 10},
		{Label: "Report", Message: "PLAYERS REPORT TO YOUR STATIONS", Duration: 8},
		{Label: "Starting", Message: "MATCHES STARTING SOON", Duration: 8},
		{Label: "Finals", Message: "GRAND FINALS STARTING NOW", Duration: 10},
	}
}

func Load() (*Config, error) {
	// .env only exists in local development
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ADMIN_URL", "https://admin.despairhardware.com")
	v.SetDefault("ADMIN_API_TOKEN", "")
	v.SetDefault("STATION_FILTER", "")
	v.SetDefault("BRIGHTNESS", 80)
	v.SetDefault("POLL_ACTIVE_INTERVAL", "2s")
	v.SetDefault("POLL_IDLE_INTERVAL", "10s")
	v.SetDefault("IDLE_AFTER", "30s")
	v.SetDefault("WEBSOCKET_ENABLED", true)
	v.SetDefault("WEBSOCKET_RECONNECT_DELAY", "1s")
	v.SetDefault("WEBSOCKET_MAX_RECONNECT_DELAY", "60s")
	v.SetDefault("WEBSOCKET_STALE_AFTER", "60s")
	v.SetDefault("LONG_PRESS_THRESHOLD", "800ms")
	v.SetDefault("TICKER_PRESETS", "")

	cfg := &Config{
		AdminURL:         v.GetString("ADMIN_URL"),
		APIToken:         v.GetString("ADMIN_API_TOKEN"),
		StationFilter:    v.GetString("STATION_FILTER"),
		Brightness:       v.GetInt("BRIGHTNESS"),
		PollActive:       v.GetDuration("POLL_ACTIVE_INTERVAL"),
		PollIdle:         v.GetDuration("POLL_IDLE_INTERVAL"),
		IdleAfter:        v.GetDuration("IDLE_AFTER"),
		WSEnabled:        v.GetBool("WEBSOCKET_ENABLED"),
		WSReconnectDelay: v.GetDuration("WEBSOCKET_RECONNECT_DELAY"),
		WSMaxReconnect:   v.GetDuration("WEBSOCKET_MAX_RECONNECT_DELAY"),
		WSStaleAfter:     v.GetDuration("WEBSOCKET_STALE_AFTER"),
		LongPress:        v.GetDuration("LONG_PRESS_THRESHOLD"),
		TickerPresets:    DefaultPresets(),
	}

	if cfg.AdminURL == "" {
		return nil, fmt.Errorf("missing ADMIN_URL")
	}
	if cfg.Brightness < 0 || cfg.Brightness > 100 {
		return nil, fmt.Errorf("BRIGHTNESS out of range: %d", cfg.Brightness)
	}

	// Presets override: a JSON array in TICKER_PRESETS replaces the defaults.
	if raw := v.GetString("TICKER_PRESETS"); raw != "" {
		var presets []TickerPreset
		if err := json.Unmarshal([]byte(raw), &presets); err != nil {
			return nil, fmt.Errorf("bad TICKER_PRESETS: %w", err)
		}
		if len(presets) > 0 {
			cfg.TickerPresets = presets
		}
	}

	return cfg, nil
}

// Redacted returns a loggable summary without the token value.
func (c *Config) Redacted() string {
	tok := "[set]"
	if c.APIToken == "" {
		tok = "[empty]"
	}
	return fmt.Sprintf(
		"adminURL=%s stationFilter=%q brightness=%d pollActive=%s pollIdle=%s ws=%t token=%s",
		c.AdminURL, c.StationFilter, c.Brightness, c.PollActive, c.PollIdle, c.WSEnabled, tok,
	)
}
