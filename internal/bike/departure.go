package bike

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kacan98/weather/internal/common"
	"github.com/kacan98/weather/internal/route"
	"github.com/kacan98/weather/internal/weather"
)

// ForecastSource supplies hourly forecasts for a coordinate; the weather
// service's fallback chain satisfies it.
type ForecastSource interface {
	HourlyForecast(ctx context.Context, lat, lon float64, hours int, preferredID string) (weather.HourlyResult, error)
}

// PointConditions pairs one route point with the forecast sample aligned
// to its arrival instant and the resulting rating.
type PointConditions struct {
	Point   route.Point    `json:"location"`
	Weather weather.Sample `json:"weather"`
	Rating  Rating         `json:"bikeRating"`
}

// OverallRating aggregates the per-point ratings of one departure option.
type OverallRating struct {
	Score   float64  `json:"score"`
	Summary string   `json:"summary"`
	Alerts  []string `json:"alerts"`
}

// DepartureOption is one candidate departure time with its full along-route
// weather picture. Options are request-scoped and never persisted.
type DepartureOption struct {
	DepartureTime time.Time         `json:"departureTime"`
	ArrivalTime   time.Time         `json:"arrivalTime"`
	Points        []PointConditions `json:"weatherAlongRoute"`
	Overall       OverallRating     `json:"overallBikeRating"`
}

// GenerateParams configures departure option generation.
type GenerateParams struct {
	Points            []route.Point
	Intervals         int
	IntervalMinutes   int
	TravelTimeMinutes int
	PreferredProvider string
}

// Generator enumerates candidate departures at a fixed cadence and computes
// arrival-adjusted weather and scores for each.
type Generator struct {
	source ForecastSource
	now    func() time.Time
}

func NewGenerator(source ForecastSource) *Generator {
	return &Generator{source: source, now: time.Now}
}

// Generate produces one DepartureOption per interval. Options are computed
// concurrently, as are the per-point forecast lookups within each option.
// Any single point failure aborts the whole generation; no partial results
// are returned.
func (g *Generator) Generate(ctx context.Context, params GenerateParams) ([]DepartureOption, error) {
	if len(params.Points) == 0 {
		return nil, fmt.Errorf("no route points to sample")
	}
	if params.Intervals <= 0 {
		return nil, fmt.Errorf("departure intervals must be greater than zero")
	}
	if params.IntervalMinutes <= 0 {
		params.IntervalMinutes = 15
	}
	if params.TravelTimeMinutes <= 0 {
		return nil, fmt.Errorf("travel time must be greater than zero")
	}

	now := g.now()
	interval := time.Duration(params.IntervalMinutes) * time.Minute
	travel := time.Duration(params.TravelTimeMinutes) * time.Minute

	options := make([]DepartureOption, params.Intervals)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := 0; i < params.Intervals; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()

			departure := now.Add(time.Duration(i) * interval)
			option, err := g.buildOption(ctx, params, now, departure, travel)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("departure option %d: %w", i, err)
				}
				return
			}
			options[i] = option
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return options, nil
}

func (g *Generator) buildOption(
	ctx context.Context,
	params GenerateParams,
	now, departure time.Time,
	travel time.Duration,
) (DepartureOption, error) {
	conditions := make([]PointConditions, len(params.Points))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for idx, pt := range params.Points {
		idx, pt := idx, pt
		wg.Add(1)
		go func() {
			defer wg.Done()

			pointInstant := departure.Add(time.Duration(float64(travel) * pt.Progress))
			hours := int(math.Ceil(pointInstant.Sub(now).Hours())) + 1
			if hours < 1 {
				hours = 1
			}

			result, err := g.source.HourlyForecast(ctx, pt.Lat, pt.Lng, hours, params.PreferredProvider)
			if err == nil {
				var sample weather.Sample
				sample, err = weather.NearestSample(result.Samples, pointInstant)
				if err == nil {
					mu.Lock()
					conditions[idx] = PointConditions{
						Point:   pt,
						Weather: sample,
						Rating:  Score(sample),
					}
					mu.Unlock()
					return
				}
			}

			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("route point %d (%.4f,%.4f): %w", idx, pt.Lat, pt.Lng, err)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return DepartureOption{}, firstErr
	}

	return DepartureOption{
		DepartureTime: departure,
		ArrivalTime:   departure.Add(travel),
		Points:        conditions,
		Overall:       overallRating(conditions),
	}, nil
}

func overallRating(points []PointConditions) OverallRating {
	sum := 0.0
	for _, p := range points {
		sum += p.Rating.Score
	}
	score := common.Round1(sum / float64(len(points)))

	var summary string
	switch {
	case score >= 8:
		summary = "Excellent biking conditions"
	case score >= 6:
		summary = "Good biking conditions"
	case score >= 4:
		summary = "Fair biking conditions - be prepared"
	default:
		summary = "Challenging biking conditions"
	}

	alerts := []string{}
	if anyPoint(points, func(s weather.Sample) bool { return s.Precipitation > 1 }) {
		alerts = append(alerts, "⚠️ Rain expected - bring rain gear")
	}
	if anyPoint(points, func(s weather.Sample) bool { return s.WindSpeed > 25 }) {
		alerts = append(alerts, "💨 Strong winds - ride carefully")
	}
	if anyPoint(points, func(s weather.Sample) bool { return s.Temperature < 5 }) {
		alerts = append(alerts, "🥶 Cold weather - dress warmly")
	}
	if anyPoint(points, func(s weather.Sample) bool { return s.Temperature > 28 }) {
		alerts = append(alerts, "☀️ Hot weather - stay hydrated")
	}
	if anyPoint(points, func(s weather.Sample) bool { return s.UVIndex > 7 }) {
		alerts = append(alerts, "🧴 High UV - wear sunscreen")
	}

	return OverallRating{Score: score, Summary: summary, Alerts: alerts}
}

func anyPoint(points []PointConditions, pred func(weather.Sample) bool) bool {
	for _, p := range points {
		if pred(p.Weather) {
			return true
		}
	}
	return false
}
