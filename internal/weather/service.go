package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoProviders is returned when the fallback chain has no available
	// candidates at all.
	ErrNoProviders = errors.New("no weather providers available")

	// ErrAllProvidersFailed wraps the aggregate failure raised when every
	// candidate in the fallback chain failed.
	ErrAllProvidersFailed = errors.New("all weather providers failed")
)

// Service owns the registered provider set, the process-wide availability
// table and the fallback order. The availability table is written once
// during Initialize and only read afterwards; Initialize is idempotent and
// safe to call from concurrent goroutines (the first completion wins).
type Service struct {
	mu          sync.Mutex
	initialized bool

	providers []Provider          // stable registration order
	byID      map[string]Provider
	fallback  []string // available provider ids, ascending priority

	cache ForecastCache // optional; nil disables caching
}

// NewService registers the given providers in order. The order is the
// tie-break for equal configured priorities.
func NewService(providers []Provider, cache ForecastCache) *Service {
	byID := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byID[p.ID()] = p
	}
	return &Service{
		providers: providers,
		byID:      byID,
		cache:     cache,
	}
}

// Initialize attempts to initialize every enabled provider that has a
// credential. Individual failures are recorded and never abort the loop.
// After all attempts the fallback order is recomputed from the available
// providers sorted ascending by configured priority. Repeated calls after
// the first completed initialization are no-ops.
func (s *Service) Initialize(configs map[string]ProviderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return
	}

	for _, p := range s.providers {
		cfg, ok := configs[p.ID()]
		if !ok || !cfg.Enabled || cfg.APIKey == "" {
			log.Printf("INFO: provider %s disabled or has no credential; marked unavailable", p.ID())
			continue
		}
		if err := p.Initialize(cfg.APIKey); err != nil {
			log.Printf("WARN: failed to initialize provider %s: %v", p.Name(), err)
			continue
		}
		log.Printf("INFO: initialized provider %s", p.Name())
	}

	type candidate struct {
		id       string
		priority int
		order    int
	}
	var available []candidate
	for i, p := range s.providers {
		if !p.Available() {
			continue
		}
		available = append(available, candidate{
			id:       p.ID(),
			priority: configs[p.ID()].Priority,
			order:    i,
		})
	}
	sort.SliceStable(available, func(i, j int) bool {
		if available[i].priority != available[j].priority {
			return available[i].priority < available[j].priority
		}
		return available[i].order < available[j].order
	})

	s.fallback = make([]string, 0, len(available))
	for _, c := range available {
		s.fallback = append(s.fallback, c.id)
	}

	s.initialized = true
	log.Printf("INFO: weather service fallback order: %v", s.fallback)
}

// Resolve returns the provider order to try for one request. A preferred id
// is placed first with the remaining fallback order after it; duplicates
// never appear. Unknown preferred ids are still tried first so the caller
// gets a descriptive failure instead of a silent substitution.
func (s *Service) Resolve(preferredID string) []string {
	s.mu.Lock()
	fallback := s.fallback
	s.mu.Unlock()

	if preferredID == "" {
		return fallback
	}

	order := make([]string, 0, len(fallback)+1)
	order = append(order, preferredID)
	for _, id := range fallback {
		if id != preferredID {
			order = append(order, id)
		}
	}
	return order
}

// AvailableProviders lists every registered provider with its availability.
func (s *Service) AvailableProviders() []ProviderDescriptor {
	descriptors := make([]ProviderDescriptor, 0, len(s.providers))
	for _, p := range s.providers {
		descriptors = append(descriptors, ProviderDescriptor{
			ID:        p.ID(),
			Name:      p.Name(),
			Available: p.Available(),
		})
	}
	return descriptors
}

// runFallback walks the resolved provider order, skipping unavailable
// providers, and returns the first success together with the error messages
// accumulated on the way. retryOn, when non-nil, can reject a technically
// successful result (used for empty location searches) so the chain
// continues. When every candidate fails the accumulated messages are joined
// into one aggregate error.
func runFallback[T any](
	s *Service,
	preferredID string,
	op string,
	call func(Provider) (T, error),
	retryOn func(T) bool,
) (T, string, []string, error) {
	var zero T
	var errs []string

	tried := 0
	for _, id := range s.Resolve(preferredID) {
		p, ok := s.byID[id]
		if !ok || !p.Available() {
			continue
		}
		tried++

		data, err := call(p)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", p.Name(), err)
			errs = append(errs, msg)
			log.Printf("WARN: %s failed on %s, falling back: %v", op, p.Name(), err)
			continue
		}
		if retryOn != nil && retryOn(data) {
			msg := fmt.Sprintf("%s: no results", p.Name())
			errs = append(errs, msg)
			log.Printf("WARN: %s returned no results on %s, falling back", op, p.Name())
			continue
		}
		return data, id, errs, nil
	}

	if tried == 0 {
		return zero, "", errs, ErrNoProviders
	}
	return zero, "", errs, fmt.Errorf("%w for %s: %s", ErrAllProvidersFailed, op, strings.Join(errs, ", "))
}

// CurrentResult is the outcome of a current-conditions lookup.
type CurrentResult struct {
	Sample     Sample   `json:"current"`
	ProviderID string   `json:"provider"`
	Errors     []string `json:"errors,omitempty"`
}

// HourlyResult is the outcome of an hourly forecast lookup.
type HourlyResult struct {
	Samples    []Sample `json:"hourly"`
	ProviderID string   `json:"provider"`
	Errors     []string `json:"errors,omitempty"`
}

// ForecastResult is the outcome of a combined forecast lookup.
type ForecastResult struct {
	Forecast   Forecast `json:"forecast"`
	ProviderID string   `json:"provider"`
	Errors     []string `json:"errors,omitempty"`
}

// SearchOutcome is the outcome of a location search.
type SearchOutcome struct {
	Results    []SearchResult `json:"results"`
	ProviderID string         `json:"provider"`
	Errors     []string       `json:"errors,omitempty"`
}

// CurrentWeather fetches current conditions through the fallback chain.
func (s *Service) CurrentWeather(ctx context.Context, lat, lon float64, preferredID string) (CurrentResult, error) {
	data, id, errs, err := runFallback(s, preferredID, "current weather", func(p Provider) (Sample, error) {
		return p.CurrentWeather(ctx, lat, lon)
	}, nil)
	if err != nil {
		return CurrentResult{Errors: errs}, err
	}
	return CurrentResult{Sample: data, ProviderID: id, Errors: errs}, nil
}

// HourlyForecast fetches an hourly series through the fallback chain,
// consulting the forecast cache first. Cache entries are keyed by the
// preference (explicit provider id or "auto") and the rounded coordinates,
// and satisfy a request only when their horizon covers it.
func (s *Service) HourlyForecast(ctx context.Context, lat, lon float64, hours int, preferredID string) (HourlyResult, error) {
	if hours <= 0 {
		return HourlyResult{}, fmt.Errorf("hours must be greater than zero")
	}

	key := cacheKey(preferredID, lat, lon)
	if s.cache != nil {
		if entry, ok := s.cache.Get(key, hours); ok {
			samples := entry.Samples
			if len(samples) > hours {
				samples = samples[:hours]
			}
			return HourlyResult{Samples: samples, ProviderID: entry.ProviderID}, nil
		}
	}

	data, id, errs, err := runFallback(s, preferredID, "hourly forecast", func(p Provider) ([]Sample, error) {
		return p.HourlyForecast(ctx, lat, lon, hours)
	}, nil)
	if err != nil {
		return HourlyResult{Errors: errs}, err
	}

	if s.cache != nil {
		s.cache.Put(key, CachedForecast{
			Samples:    data,
			ProviderID: id,
			Hours:      hours,
			FetchedAt:  time.Now().UTC(),
		})
	}

	return HourlyResult{Samples: data, ProviderID: id, Errors: errs}, nil
}

// GetForecast fetches current plus hourly conditions through the fallback chain.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64, preferredID string) (ForecastResult, error) {
	data, id, errs, err := runFallback(s, preferredID, "forecast", func(p Provider) (Forecast, error) {
		return p.GetForecast(ctx, lat, lon)
	}, nil)
	if err != nil {
		return ForecastResult{Errors: errs}, err
	}
	return ForecastResult{Forecast: data, ProviderID: id, Errors: errs}, nil
}

// SearchLocations geocodes a free-text query through the fallback chain.
// A provider returning zero matches is not treated as success; the next
// provider is tried instead.
func (s *Service) SearchLocations(ctx context.Context, query, preferredID string) (SearchOutcome, error) {
	data, id, errs, err := runFallback(s, preferredID, "location search", func(p Provider) ([]SearchResult, error) {
		return p.SearchLocations(ctx, query)
	}, func(results []SearchResult) bool {
		return len(results) == 0
	})
	if err != nil {
		return SearchOutcome{Errors: errs}, err
	}
	return SearchOutcome{Results: data, ProviderID: id, Errors: errs}, nil
}

// CompareProviders fetches current conditions from every available provider
// concurrently and returns per-provider samples alongside per-provider
// failure reasons.
func (s *Service) CompareProviders(ctx context.Context, lat, lon float64) (map[string]*Sample, map[string]string) {
	samples := make(map[string]*Sample)
	failures := make(map[string]string)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, p := range s.providers {
		if !p.Available() {
			continue
		}
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			sample, err := p.CurrentWeather(ctx, lat, lon)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				samples[p.ID()] = nil
				failures[p.ID()] = err.Error()
				return
			}
			samples[p.ID()] = &sample
		}()
	}
	wg.Wait()

	return samples, failures
}

func cacheKey(preferredID string, lat, lon float64) string {
	pref := preferredID
	if pref == "" {
		pref = "auto"
	}
	return pref + ":" + CoordKey(lat, lon)
}
