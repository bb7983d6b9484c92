package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kacan98/weather/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeatherMap 2.5 API. Its forecast endpoint reports 3-hour steps, so
// intermediate hourly samples are linearly interpolated. Wind arrives in
// m/s and visibility in metres; both are converted to metric road units.
type OpenWeatherProvider struct {
	apiKey    string
	available bool
	baseURL   string
	geoURL    string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		baseURL: "https://api.openweathermap.org/data/2.5",
		geoURL:  "https://api.openweathermap.org/geo/1.0",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("openweathermap"),
	}
}

func (p *OpenWeatherProvider) ID() string   { return "openweathermap" }
func (p *OpenWeatherProvider) Name() string { return "OpenWeatherMap" }

func (p *OpenWeatherProvider) Initialize(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("openweathermap: api key is empty")
	}
	p.apiKey = apiKey
	p.available = true
	return nil
}

func (p *OpenWeatherProvider) Available() bool { return p.available }

// openWeatherEntry is the shape shared by the current-weather response and
// each 3-hour forecast list entry.
type openWeatherEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Pop        float64 `json:"pop"`
	Visibility float64 `json:"visibility"`
	Weather    []struct {
		Main string `json:"main"`
		Icon string `json:"icon"`
	} `json:"weather"`
}

func (e openWeatherEntry) toSample() weather.Sample {
	precip := e.Rain.OneH
	if precip == 0 {
		precip = e.Rain.ThreeH
	}

	gust := e.Wind.Gust
	if gust == 0 {
		gust = e.Wind.Speed
	}

	visibility := e.Visibility
	if visibility == 0 {
		visibility = 10000
	}

	condition := ""
	icon := ""
	isDay := true
	if len(e.Weather) > 0 {
		condition = e.Weather[0].Main
		if e.Weather[0].Icon != "" {
			icon = fmt.Sprintf("https://openweathermap.org/img/w/%s.png", e.Weather[0].Icon)
			isDay = strings.HasSuffix(e.Weather[0].Icon, "d")
		}
	}

	return weather.Sample{
		Temperature:   e.Main.Temp,
		FeelsLike:     e.Main.FeelsLike,
		Humidity:      e.Main.Humidity,
		WindSpeed:     mpsToKmh(e.Wind.Speed),
		WindDirection: windDirection(e.Wind.Deg),
		WindGust:      mpsToKmh(gust),
		Precipitation: precip,
		RainChance:    e.Pop * 100,
		Visibility:    visibility / 1000,
		UVIndex:       0, // not available on the 2.5 API
		Pressure:      e.Main.Pressure,
		Condition:     condition,
		Icon:          icon,
		IsDay:         isDay,
		Time:          epochTime(e.Dt),
	}
}

func (p *OpenWeatherProvider) get(ctx context.Context, base, path string, values url.Values, out any) error {
	if !p.available {
		return fmt.Errorf("openweathermap: %w", errNotInitialized)
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("appid", p.apiKey)
		u := fmt.Sprintf("%s%s?%s", base, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return fmt.Errorf("openweathermap: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openweathermap: decode response: %w", err)
	}
	return nil
}

func (p *OpenWeatherProvider) CurrentWeather(ctx context.Context, lat, lon float64) (weather.Sample, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("units", "metric")

	var payload openWeatherEntry
	if err := p.get(ctx, p.baseURL, "/weather", values, &payload); err != nil {
		return weather.Sample{}, err
	}
	return payload.toSample(), nil
}

// HourlyForecast fetches the 5-day/3-hour forecast and interpolates two
// synthetic samples between each pair of steps to approximate an hourly
// series.
func (p *OpenWeatherProvider) HourlyForecast(ctx context.Context, lat, lon float64, hours int) ([]weather.Sample, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("units", "metric")

	var payload struct {
		List []openWeatherEntry `json:"list"`
	}
	if err := p.get(ctx, p.baseURL, "/forecast", values, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("openweathermap: forecast response contained no entries")
	}

	samples := make([]weather.Sample, 0, hours)
	for i := 0; i < len(payload.List)-1 && len(samples) < hours; i++ {
		current := payload.List[i].toSample()
		next := payload.List[i+1].toSample()

		samples = append(samples, current)
		for j := 1; j <= 2 && len(samples) < hours; j++ {
			samples = append(samples, interpolateSamples(current, next, float64(j)/3))
		}
	}
	if len(samples) < hours {
		samples = append(samples, payload.List[len(payload.List)-1].toSample())
	}
	if len(samples) > hours {
		samples = samples[:hours]
	}
	return samples, nil
}

func (p *OpenWeatherProvider) GetForecast(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
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

func (p *OpenWeatherProvider) SearchLocations(ctx context.Context, query string) ([]weather.SearchResult, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", "5")

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}
	if err := p.get(ctx, p.geoURL, "/direct", values, &payload); err != nil {
		return nil, err
	}

	results := make([]weather.SearchResult, 0, len(payload))
	for _, item := range payload {
		results = append(results, weather.SearchResult{
			Name:    item.Name,
			Lat:     item.Lat,
			Lon:     item.Lon,
			Country: item.Country,
			Region:  item.State,
		})
	}
	return results, nil
}
