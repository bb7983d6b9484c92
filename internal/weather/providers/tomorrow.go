package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kacan98/weather/internal/weather"
	"github.com/sony/gobreaker"
)

// TomorrowProvider implements the weather.Provider interface for the
// Tomorrow.io v4 API. Conditions arrive as numeric weather codes, wind in
// m/s. Tomorrow.io has no geocoding endpoint, so SearchLocations always
// reports zero matches and the fallback chain moves on.
type TomorrowProvider struct {
	apiKey    string
	available bool
	baseURL   string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewTomorrowProvider(client *http.Client) *TomorrowProvider {
	return &TomorrowProvider{
		baseURL: "https://api.tomorrow.io/v4",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("tomorrow"),
	}
}

func (p *TomorrowProvider) ID() string   { return "tomorrow" }
func (p *TomorrowProvider) Name() string { return "Tomorrow.io" }

func (p *TomorrowProvider) Initialize(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("tomorrow: api key is empty")
	}
	p.apiKey = apiKey
	p.available = true
	return nil
}

func (p *TomorrowProvider) Available() bool { return p.available }

// tomorrowValues is the field set requested from both the realtime and
// timelines endpoints.
type tomorrowValues struct {
	Temperature              float64 `json:"temperature"`
	TemperatureApparent      float64 `json:"temperatureApparent"`
	Humidity                 float64 `json:"humidity"`
	WindSpeed                float64 `json:"windSpeed"`
	WindDirection            float64 `json:"windDirection"`
	WindGust                 float64 `json:"windGust"`
	PrecipitationIntensity   float64 `json:"precipitationIntensity"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	Visibility               float64 `json:"visibility"`
	UVIndex                  float64 `json:"uvIndex"`
	PressureSurfaceLevel     float64 `json:"pressureSurfaceLevel"`
	WeatherCode              int     `json:"weatherCode"`
}

var timelineFields = []string{
	"temperature",
	"temperatureApparent",
	"humidity",
	"windSpeed",
	"windDirection",
	"windGust",
	"precipitationIntensity",
	"precipitationProbability",
	"weatherCode",
	"visibility",
	"uvIndex",
	"pressureSurfaceLevel",
}

func (v tomorrowValues) toSample(timestamp string) weather.Sample {
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	gust := v.WindGust
	if gust == 0 {
		gust = v.WindSpeed
	}

	feelsLike := v.TemperatureApparent
	if feelsLike == 0 {
		feelsLike = v.Temperature
	}

	visibility := v.Visibility
	if visibility == 0 {
		visibility = 10
	}

	pressure := v.PressureSurfaceLevel
	if pressure == 0 {
		pressure = 1013
	}

	return weather.Sample{
		Temperature:   v.Temperature,
		FeelsLike:     feelsLike,
		Humidity:      v.Humidity,
		WindSpeed:     mpsToKmh(v.WindSpeed),
		WindDirection: windDirection(v.WindDirection),
		WindGust:      mpsToKmh(gust),
		Precipitation: v.PrecipitationIntensity,
		RainChance:    v.PrecipitationProbability,
		Visibility:    visibility,
		UVIndex:       v.UVIndex,
		Pressure:      pressure,
		Condition:     tomorrowCondition(v.WeatherCode),
		IsDay:         true, // would require sunrise/sunset data
		Time:          ts,
	}
}

func (p *TomorrowProvider) get(ctx context.Context, path string, values url.Values, out any) error {
	if !p.available {
		return fmt.Errorf("tomorrow: %w", errNotInitialized)
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("apikey", p.apiKey)
		values.Set("units", "metric")
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return fmt.Errorf("tomorrow: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tomorrow: decode response: %w", err)
	}
	return nil
}

func (p *TomorrowProvider) CurrentWeather(ctx context.Context, lat, lon float64) (weather.Sample, error) {
	values := url.Values{}
	values.Set("location", fmt.Sprintf("%f,%f", lat, lon))

	var payload struct {
		Data struct {
			Time   string         `json:"time"`
			Values tomorrowValues `json:"values"`
		} `json:"data"`
	}
	if err := p.get(ctx, "/weather/realtime", values, &payload); err != nil {
		return weather.Sample{}, err
	}
	if payload.Data.Time == "" {
		return weather.Sample{}, fmt.Errorf("tomorrow: unexpected realtime response structure")
	}
	return payload.Data.Values.toSample(payload.Data.Time), nil
}

func (p *TomorrowProvider) HourlyForecast(ctx context.Context, lat, lon float64, hours int) ([]weather.Sample, error) {
	now := time.Now().UTC()
	values := url.Values{}
	values.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	values.Set("fields", strings.Join(timelineFields, ","))
	values.Set("timesteps", "1h")
	values.Set("startTime", now.Format(time.RFC3339))
	values.Set("endTime", now.Add(time.Duration(hours)*time.Hour).Format(time.RFC3339))

	var payload struct {
		Data struct {
			Timelines []struct {
				Intervals []struct {
					StartTime string         `json:"startTime"`
					Values    tomorrowValues `json:"values"`
				} `json:"intervals"`
			} `json:"timelines"`
		} `json:"data"`
	}
	if err := p.get(ctx, "/timelines", values, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data.Timelines) == 0 {
		return nil, fmt.Errorf("tomorrow: unexpected timelines response structure")
	}

	intervals := payload.Data.Timelines[0].Intervals
	if len(intervals) > hours {
		intervals = intervals[:hours]
	}

	samples := make([]weather.Sample, 0, len(intervals))
	for _, interval := range intervals {
		samples = append(samples, interval.Values.toSample(interval.StartTime))
	}
	return samples, nil
}

func (p *TomorrowProvider) GetForecast(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	current, err := p.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return weather.Forecast{}, err
	}
	hourly, err := p.HourlyForecast(ctx, lat, lon, 24)
	if err != nil {
		return weather.Forecast{}, err
	}

	return weather.Forecast{
		Location: weather.Location{
			Name: fmt.Sprintf("%.2f, %.2f", lat, lon),
			Lat:  lat,
			Lon:  lon,
		},
		Current: &current,
		Hourly:  hourly,
	}, nil
}

// SearchLocations reports no matches; Tomorrow.io does not offer geocoding.
func (p *TomorrowProvider) SearchLocations(ctx context.Context, query string) ([]weather.SearchResult, error) {
	return []weather.SearchResult{}, nil
}

// tomorrowCondition maps Tomorrow.io weather codes to condition text.
// https://docs.tomorrow.io/reference/weather-codes
func tomorrowCondition(code int) string {
	codes := map[int]string{
		1000: "Clear",
		1001: "Cloudy",
		1100: "Mostly Clear",
		1101: "Partly Cloudy",
		1102: "Mostly Cloudy",
		2000: "Fog",
		2100: "Light Fog",
		3000: "Light Wind",
		3001: "Wind",
		3002: "Strong Wind",
		4000: "Drizzle",
		4001: "Rain",
		4200: "Light Rain",
		4201: "Heavy Rain",
		5000: "Snow",
		5001: "Flurries",
		5100: "Light Snow",
		5101: "Heavy Snow",
		6000: "Freezing Drizzle",
		6001: "Freezing Rain",
		6200: "Light Freezing Rain",
		6201: "Heavy Freezing Rain",
		7000: "Ice Pellets",
		7101: "Heavy Ice Pellets",
		7102: "Light Ice Pellets",
		8000: "Thunderstorm",
	}
	if text, ok := codes[code]; ok {
		return text
	}
	return "Unknown"
}
