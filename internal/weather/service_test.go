package weather

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeProvider is a scriptable Provider implementation.
type fakeProvider struct {
	mu        sync.Mutex
	id        string
	name      string
	available bool
	initErr   error

	current    Sample
	currentErr error

	hourly      []Sample
	hourlyErr   error
	hourlyCalls int

	search    []SearchResult
	searchErr error
}

func (f *fakeProvider) ID() string   { return f.id }
func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Initialize(apiKey string) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.available = apiKey != ""
	return nil
}

func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) CurrentWeather(context.Context, float64, float64) (Sample, error) {
	return f.current, f.currentErr
}

func (f *fakeProvider) HourlyForecast(_ context.Context, _, _ float64, hours int) ([]Sample, error) {
	f.mu.Lock()
	f.hourlyCalls++
	f.mu.Unlock()
	if f.hourlyErr != nil {
		return nil, f.hourlyErr
	}
	if len(f.hourly) > hours {
		return f.hourly[:hours], nil
	}
	return f.hourly, nil
}

func (f *fakeProvider) GetForecast(ctx context.Context, lat, lon float64) (Forecast, error) {
	current, err := f.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return Forecast{}, err
	}
	return Forecast{Current: &current, Hourly: f.hourly}, nil
}

func (f *fakeProvider) SearchLocations(context.Context, string) ([]SearchResult, error) {
	return f.search, f.searchErr
}

func enabledConfig(priority int) ProviderConfig {
	return ProviderConfig{APIKey: "key", Priority: priority, Enabled: true}
}

func TestInitializeFallbackOrder(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A"}
	b := &fakeProvider{id: "b", name: "B"}
	c := &fakeProvider{id: "c", name: "C"}

	svc := NewService([]Provider{a, b, c}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(2),
		"b": enabledConfig(1),
		"c": {APIKey: "key", Priority: 1, Enabled: false},
	})

	got := svc.Resolve("")
	want := []string{"b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fallback order: want %v, got %v", want, got)
	}
	if c.Available() {
		t.Fatal("disabled provider must stay unavailable")
	}
}

func TestInitializeIdempotent(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A"}
	b := &fakeProvider{id: "b", name: "B"}

	svc := NewService([]Provider{a, b}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(0),
		"b": enabledConfig(1),
	})
	// Second call with different priorities must not change anything.
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(5),
		"b": enabledConfig(0),
	})

	if got := svc.Resolve(""); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("fallback order changed on re-initialization: %v", got)
	}
}

func TestInitializeTieBreaksByRegistrationOrder(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A"}
	b := &fakeProvider{id: "b", name: "B"}

	svc := NewService([]Provider{a, b}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(1),
		"b": enabledConfig(1),
	})

	if got := svc.Resolve(""); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("equal priorities must keep registration order, got %v", got)
	}
}

func TestResolvePreferredFirst(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A"}
	b := &fakeProvider{id: "b", name: "B"}
	c := &fakeProvider{id: "c", name: "C"}

	svc := NewService([]Provider{a, b, c}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(1),
		"b": enabledConfig(0),
		"c": enabledConfig(2),
	})

	got := svc.Resolve("a")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("preferred resolution: want %v, got %v", want, got)
	}
}

func TestCurrentWeatherFallsBack(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A", currentErr: errors.New("boom")}
	b := &fakeProvider{id: "b", name: "B", current: Sample{Temperature: 12}}

	svc := NewService([]Provider{a, b}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(0),
		"b": enabledConfig(1),
	})

	result, err := svc.CurrentWeather(context.Background(), 55.67, 12.56, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProviderID != "b" {
		t.Fatalf("provider: want b, got %s", result.ProviderID)
	}
	if result.Sample.Temperature != 12 {
		t.Fatalf("sample not taken from fallback provider: %+v", result.Sample)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "boom") {
		t.Fatalf("expected the first provider's failure recorded, got %v", result.Errors)
	}
}

func TestCurrentWeatherAllFail(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A", currentErr: errors.New("a down")}
	b := &fakeProvider{id: "b", name: "B", currentErr: errors.New("b down")}

	svc := NewService([]Provider{a, b}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(0),
		"b": enabledConfig(1),
	})

	_, err := svc.CurrentWeather(context.Background(), 55.67, 12.56, "")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("want ErrAllProvidersFailed, got %v", err)
	}
	for _, fragment := range []string{"a down", "b down"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("aggregate error missing %q: %v", fragment, err)
		}
	}
}

func TestCurrentWeatherNoProviders(t *testing.T) {
	svc := NewService([]Provider{&fakeProvider{id: "a", name: "A"}}, nil)
	svc.Initialize(map[string]ProviderConfig{})

	_, err := svc.CurrentWeather(context.Background(), 55.67, 12.56, "")
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("want ErrNoProviders, got %v", err)
	}
}

func TestSearchLocationsSkipsEmptyResults(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A", search: []SearchResult{}}
	b := &fakeProvider{id: "b", name: "B", search: []SearchResult{{Name: "Copenhagen"}}}

	svc := NewService([]Provider{a, b}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(0),
		"b": enabledConfig(1),
	})

	outcome, err := svc.SearchLocations(context.Background(), "copenhagen", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.ProviderID != "b" {
		t.Fatalf("empty results must advance the chain, got provider %s", outcome.ProviderID)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Name != "Copenhagen" {
		t.Fatalf("unexpected results: %v", outcome.Results)
	}
}

func hourlySamples(n int, start time.Time) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{Temperature: 15, Time: start.Add(time.Duration(i) * time.Hour)}
	}
	return samples
}

func TestHourlyForecastUsesCache(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A", hourly: hourlySamples(24, time.Now())}
	cache := newFakeCache()

	svc := NewService([]Provider{a}, cache)
	svc.Initialize(map[string]ProviderConfig{"a": enabledConfig(0)})

	first, err := svc.HourlyForecast(context.Background(), 55.67, 12.56, 6, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.HourlyForecast(context.Background(), 55.67, 12.56, 6, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.hourlyCalls != 1 {
		t.Fatalf("second identical request must hit the cache, provider called %d times", a.hourlyCalls)
	}
	if len(first.Samples) != 6 || len(second.Samples) != 6 {
		t.Fatalf("samples must be trimmed to the request horizon: %d, %d", len(first.Samples), len(second.Samples))
	}
}

func TestHourlyForecastCacheKeyedByPreference(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A", hourly: hourlySamples(24, time.Now())}
	cache := newFakeCache()

	svc := NewService([]Provider{a}, cache)
	svc.Initialize(map[string]ProviderConfig{"a": enabledConfig(0)})

	if _, err := svc.HourlyForecast(context.Background(), 55.67, 12.56, 6, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.HourlyForecast(context.Background(), 55.67, 12.56, 6, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.hourlyCalls != 2 {
		t.Fatalf("explicit preference must use its own cache entry, provider called %d times", a.hourlyCalls)
	}
}

func TestCompareProviders(t *testing.T) {
	a := &fakeProvider{id: "a", name: "A", current: Sample{Temperature: 10}}
	b := &fakeProvider{id: "b", name: "B", currentErr: errors.New("down")}

	svc := NewService([]Provider{a, b}, nil)
	svc.Initialize(map[string]ProviderConfig{
		"a": enabledConfig(0),
		"b": enabledConfig(1),
	})

	samples, failures := svc.CompareProviders(context.Background(), 55.67, 12.56)
	if samples["a"] == nil || samples["a"].Temperature != 10 {
		t.Fatalf("provider a sample missing: %v", samples)
	}
	if samples["b"] != nil {
		t.Fatalf("failed provider must map to nil, got %v", samples["b"])
	}
	if failures["b"] != "down" {
		t.Fatalf("failure reason missing: %v", failures)
	}
}

// fakeCache is a minimal ForecastCache for service tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]CachedForecast
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]CachedForecast)}
}

func (c *fakeCache) Get(key string, hours int) (CachedForecast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	if !ok || entry.Hours < hours {
		return CachedForecast{}, false
	}
	return entry, true
}

func (c *fakeCache) Put(key string, entry CachedForecast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry
}
