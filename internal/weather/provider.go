package weather

import (
	"context"
	"time"
)

// Provider abstracts a weather data source (WeatherAPI, OpenWeatherMap,
// Tomorrow.io). Each implementation owns its credential and base URL and is
// responsible for request construction, unit conversion and error
// translation. A provider becomes available only after Initialize succeeds
// with a non-empty credential.
type Provider interface {
	// ID is the stable identifier used in configuration and requests.
	ID() string
	// Name is the human-readable display name used in error messages.
	Name() string
	// Initialize sets the credential and marks the provider available.
	// It must never panic; a missing credential is reported as an error.
	Initialize(apiKey string) error
	// Available reports whether the provider initialized successfully.
	Available() bool

	CurrentWeather(ctx context.Context, lat, lon float64) (Sample, error)
	// HourlyForecast returns samples ordered ascending by time. The result
	// may be shorter than hours if the upstream horizon is smaller.
	HourlyForecast(ctx context.Context, lat, lon float64, hours int) ([]Sample, error)
	GetForecast(ctx context.Context, lat, lon float64) (Forecast, error)
	SearchLocations(ctx context.Context, query string) ([]SearchResult, error)
}

// ForecastCache is the contract the in-memory forecast store must satisfy.
// The service consults it before walking the provider fallback chain.
type ForecastCache interface {
	Get(key string, hours int) (CachedForecast, bool)
	Put(key string, entry CachedForecast)
}

// CachedForecast is one cached hourly series together with the provider
// that produced it and the horizon it was fetched for.
type CachedForecast struct {
	Samples    []Sample
	ProviderID string
	Hours      int
	FetchedAt  time.Time
}
