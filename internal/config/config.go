package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kacan98/weather/internal/weather"
)

type AppConfig struct {
	// Per-provider credentials, priorities and enablement, keyed by
	// provider id (weatherapi, openweathermap, tomorrow).
	WeatherProviders map[string]weather.ProviderConfig

	// Routing backends. Empty keys disable the backend and leave the
	// straight-line fallback.
	OpenRouteServiceAPIKey string
	GraphHopperAPIKey      string

	// Outbound HTTP client timeout.
	HTTPTimeout time.Duration

	// Forecast cache retention.
	CacheTTL           time.Duration
	CacheMaxEntries    int
	CacheSweepInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.WeatherProviders = map[string]weather.ProviderConfig{
		"weatherapi": {
			APIKey:   os.Getenv("WEATHERAPI_API_KEY"),
			Priority: getenvInt("WEATHERAPI_PRIORITY", 0),
			Enabled:  getenvBool("WEATHERAPI_ENABLED", true),
		},
		"openweathermap": {
			APIKey:   os.Getenv("OPENWEATHER_API_KEY"),
			Priority: getenvInt("OPENWEATHER_PRIORITY", 1),
			Enabled:  getenvBool("OPENWEATHER_ENABLED", true),
		},
		"tomorrow": {
			APIKey:   os.Getenv("TOMORROW_API_KEY"),
			Priority: getenvInt("TOMORROW_PRIORITY", 2),
			Enabled:  getenvBool("TOMORROW_ENABLED", true),
		},
	}

	cfg.OpenRouteServiceAPIKey = os.Getenv("OPENROUTESERVICE_API_KEY")
	cfg.GraphHopperAPIKey = os.Getenv("GRAPHHOPPER_API_KEY")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	ttlStr := getenvDefault("CACHE_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 512)

	sweepStr := getenvDefault("CACHE_SWEEP_INTERVAL", "10m")
	sweep, err := time.ParseDuration(sweepStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SWEEP_INTERVAL: %w", err)
	}
	cfg.CacheSweepInterval = sweep

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

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
