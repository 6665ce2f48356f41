package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	OpenMeteoEnabled  bool

	// GeocoderAPIKey enables Google geocoding for districts outside the catalogue.
	GeocoderAPIKey string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// RefreshInterval controls how often the scheduler refreshes every district.
	RefreshInterval time.Duration

	// WeatherMaxAge is how long a stored sample answers lookups before a new fetch.
	WeatherMaxAge time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of samples per district (0 = unlimited)
	StoreMaxAge     time.Duration // max age of samples (0 = unlimited)

	// RiskTablePath points to a risk table CSV; empty uses the built-in table.
	RiskTablePath string

	Port            string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	enabled, err := getenvBool("OPENMETEO_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cfg.OpenMeteoEnabled = enabled

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"REFRESH_INTERVAL", "15m", &cfg.RefreshInterval},
		{"WEATHER_MAX_AGE", "10m", &cfg.WeatherMaxAge},
		{"STORE_MAX_AGE", "24h", &cfg.StoreMaxAge},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", d.key)
		}
		*d.dst = v
	}

	if cfg.HTTPTimeout == 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	cfg.RiskTablePath = strings.TrimSpace(os.Getenv("RISK_TABLE_PATH"))
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
