package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kacan98/weather/internal/weather"
	"github.com/sony/gobreaker"
)

// WeatherAPIProvider implements the weather.Provider interface for
// WeatherAPI.com. Wind and direction arrive already in km/h and compass
// form, so the adapter mostly passes fields through.
type WeatherAPIProvider struct {
	apiKey    string
	available bool
	baseURL   string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		baseURL: "https://api.weatherapi.com/v1",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("weatherapi"),
	}
}

func (p *WeatherAPIProvider) ID() string   { return "weatherapi" }
func (p *WeatherAPIProvider) Name() string { return "WeatherAPI" }

func (p *WeatherAPIProvider) Initialize(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("weatherapi: api key is empty")
	}
	p.apiKey = apiKey
	p.available = true
	return nil
}

func (p *WeatherAPIProvider) Available() bool { return p.available }

// weatherAPIHour is the hour/current payload shape shared by the current
// and forecast endpoints.
type weatherAPIHour struct {
	TimeEpoch        int64   `json:"time_epoch"`
	LastUpdatedEpoch int64   `json:"last_updated_epoch"`
	TempC            float64 `json:"temp_c"`
	FeelsLikeC       float64 `json:"feelslike_c"`
	Humidity         float64 `json:"humidity"`
	WindKph          float64 `json:"wind_kph"`
	WindDir          string  `json:"wind_dir"`
	GustKph          float64 `json:"gust_kph"`
	PressureMb       float64 `json:"pressure_mb"`
	PrecipMm         float64 `json:"precip_mm"`
	ChanceOfRain     float64 `json:"chance_of_rain"`
	VisKm            float64 `json:"vis_km"`
	UV               float64 `json:"uv"`
	IsDay            int     `json:"is_day"`
	Condition        struct {
		Text string `json:"text"`
		Icon string `json:"icon"`
	} `json:"condition"`
}

func (h weatherAPIHour) toSample() weather.Sample {
	ts := h.TimeEpoch
	if ts == 0 {
		ts = h.LastUpdatedEpoch
	}
	return weather.Sample{
		Temperature:   h.TempC,
		FeelsLike:     h.FeelsLikeC,
		Humidity:      h.Humidity,
		WindSpeed:     h.WindKph,
		WindDirection: h.WindDir,
		WindGust:      h.GustKph,
		Precipitation: h.PrecipMm,
		RainChance:    h.ChanceOfRain,
		Visibility:    h.VisKm,
		UVIndex:       h.UV,
		Pressure:      h.PressureMb,
		Condition:     h.Condition.Text,
		Icon:          h.Condition.Icon,
		IsDay:         h.IsDay == 1,
		Time:          epochTime(ts),
	}
}

func (p *WeatherAPIProvider) get(ctx context.Context, path string, values url.Values, out any) error {
	if !p.available {
		return fmt.Errorf("weatherapi: %w", errNotInitialized)
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("key", p.apiKey)
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return fmt.Errorf("weatherapi: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("weatherapi: decode response: %w", err)
	}
	return nil
}

func (p *WeatherAPIProvider) CurrentWeather(ctx context.Context, lat, lon float64) (weather.Sample, error) {
	values := url.Values{}
	values.Set("q", fmt.Sprintf("%f,%f", lat, lon))
	values.Set("aqi", "no")

	var payload struct {
		Current weatherAPIHour `json:"current"`
	}
	if err := p.get(ctx, "/current.json", values, &payload); err != nil {
		return weather.Sample{}, err
	}
	return payload.Current.toSample(), nil
}

type weatherAPIForecastPayload struct {
	Location struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	} `json:"location"`
	Current  weatherAPIHour `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Hour []weatherAPIHour `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) fetchForecast(ctx context.Context, lat, lon float64, days int) (weatherAPIForecastPayload, error) {
	values := url.Values{}
	values.Set("q", fmt.Sprintf("%f,%f", lat, lon))
	values.Set("days", fmt.Sprintf("%d", days))
	values.Set("aqi", "no")
	values.Set("alerts", "no")

	var payload weatherAPIForecastPayload
	err := p.get(ctx, "/forecast.json", values, &payload)
	return payload, err
}

// HourlyForecast returns up to the requested number of hourly samples
// starting from the current hour. WeatherAPI returns whole days from
// midnight, so already-elapsed hours are skipped.
func (p *WeatherAPIProvider) HourlyForecast(ctx context.Context, lat, lon float64, hours int) ([]weather.Sample, error) {
	days := (hours + 23) / 24
	// One extra day so a request late in the day still covers the horizon.
	payload, err := p.fetchForecast(ctx, lat, lon, days+1)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-time.Hour)
	samples := make([]weather.Sample, 0, hours)
	for _, day := range payload.Forecast.ForecastDay {
		for _, hour := range day.Hour {
			sample := hour.toSample()
			if sample.Time.Before(cutoff) {
				continue
			}
			samples = append(samples, sample)
			if len(samples) >= hours {
				return samples, nil
			}
		}
	}
	return samples, nil
}

func (p *WeatherAPIProvider) GetForecast(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	payload, err := p.fetchForecast(ctx, lat, lon, 2)
	if err != nil {
		return weather.Forecast{}, err
	}

	cutoff := time.Now().UTC().Add(-time.Hour)
	var hourly []weather.Sample
	for _, day := range payload.Forecast.ForecastDay {
		for _, hour := range day.Hour {
			sample := hour.toSample()
			if sample.Time.Before(cutoff) {
				continue
			}
			hourly = append(hourly, sample)
			if len(hourly) >= 24 {
				break
			}
		}
		if len(hourly) >= 24 {
			break
		}
	}

	current := payload.Current.toSample()
	return weather.Forecast{
		Location: weather.Location{
			Name: payload.Location.Name,
			Lat:  payload.Location.Lat,
			Lon:  payload.Location.Lon,
		},
		Current: &current,
		Hourly:  hourly,
	}, nil
}

func (p *WeatherAPIProvider) SearchLocations(ctx context.Context, query string) ([]weather.SearchResult, error) {
	values := url.Values{}
	values.Set("q", query)

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		Region  string  `json:"region"`
	}
	if err := p.get(ctx, "/search.json", values, &payload); err != nil {
		return nil, err
	}

	results := make([]weather.SearchResult, 0, len(payload))
	for _, item := range payload {
		results = append(results, weather.SearchResult{
			Name:    item.Name,
			Lat:     item.Lat,
			Lon:     item.Lon,
			Country: item.Country,
			Region:  item.Region,
		})
	}
	return results, nil
}
