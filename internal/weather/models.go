package weather

import (
	"fmt"
	"time"
)

// Sample is the normalized forecast or observation at one instant and
// location. All units are metric regardless of the originating provider:
// temperatures in Celsius, wind in km/h, precipitation in mm, visibility
// in km, pressure in hPa. Time is always a valid instant; adapters
// substitute time.Now().UTC() when an upstream timestamp fails to parse.
type Sample struct {
	Temperature   float64   `json:"temperatureC"`
	FeelsLike     float64   `json:"feelsLikeC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeedKph"`
	WindDirection string    `json:"windDirection"`
	WindGust      float64   `json:"windGustKph,omitempty"` // 0 means not reported
	Precipitation float64   `json:"precipMm"`
	RainChance    float64   `json:"rainChancePercent"`
	Visibility    float64   `json:"visibilityKm"`
	UVIndex       float64   `json:"uvIndex"`
	Pressure      float64   `json:"pressureHpa"`
	Condition     string    `json:"condition"`
	Icon          string    `json:"icon,omitempty"`
	IsDay         bool      `json:"isDay"`
	Time          time.Time `json:"time"`
}

// Location identifies the place a forecast belongs to.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Forecast bundles current conditions with an hourly series for one location.
// Hourly entries are ordered by Time ascending.
type Forecast struct {
	Location Location `json:"location"`
	Current  *Sample  `json:"current,omitempty"`
	Hourly   []Sample `json:"hourly"`
}

// SearchResult is one geocoding match for a free-text location query.
type SearchResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country,omitempty"`
	Region  string  `json:"region,omitempty"`
}

// ProviderDescriptor describes one registered provider and whether it
// survived initialization.
type ProviderDescriptor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ProviderConfig carries the per-provider settings handed to Initialize.
type ProviderConfig struct {
	APIKey   string
	Priority int
	Enabled  bool
}

// CoordKey returns a canonical cache key for a coordinate pair, rounded to
// three decimals (roughly 110 m) so nearby lookups share forecast data.
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.3f:%.3f", lat, lon)
}
