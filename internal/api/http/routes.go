package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/kacan98/weather/internal/bike"
	"github.com/kacan98/weather/internal/route"
	"github.com/kacan98/weather/internal/weather"
)

var validate = validator.New()

const (
	defaultDepartureIntervals = 8
	defaultTravelTimeMinutes  = 30
	departureIntervalMinutes  = 15
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, sampler *route.Sampler, generator *bike.Generator) {
	v1 := app.Group("/api/v1")

	v1.Post("/route-weather", func(c *fiber.Ctx) error {
		var req routeWeatherRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.applyDefaults()

		preferred, err := req.preferredTime(time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resolved := sampler.Sample(c.Context(),
			route.Coordinate{Lat: *req.Start.Lat, Lng: *req.Start.Lng},
			route.Coordinate{Lat: *req.End.Lat, Lng: *req.End.Lng},
		)

		options, err := generator.Generate(c.Context(), bike.GenerateParams{
			Points:            resolved.Points,
			Intervals:         req.DepartureIntervals,
			IntervalMinutes:   departureIntervalMinutes,
			TravelTimeMinutes: req.EstimatedTravelTimeMinutes,
			PreferredProvider: req.PreferredProvider,
		})
		if err != nil {
			return providerError(err)
		}

		recommendation, err := bike.Recommend(options, departureIntervalMinutes, preferred)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"route": fiber.Map{
				"start":                      req.Start,
				"end":                        req.End,
				"points":                     resolved.Points,
				"distanceKm":                 resolved.DistanceKm,
				"durationEstimateMin":        resolved.DurationEstimateMin,
				"source":                     resolved.Source,
				"estimatedTravelTimeMinutes": req.EstimatedTravelTimeMinutes,
			},
			"departureOptions": options,
			"recommendation":   recommendation,
			"providers":        service.AvailableProviders(),
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		lat, lon, err := coordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.CurrentWeather(c.Context(), lat, lon, c.Query("provider"))
		if err != nil {
			return providerError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		lat, lon, err := coordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		hours := c.QueryInt("hours", 24)
		if hours < 1 || hours > 48 {
			return fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 48")
		}

		result, err := service.HourlyForecast(c.Context(), lat, lon, hours, c.Query("provider"))
		if err != nil {
			return providerError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/weather/comparison", func(c *fiber.Ctx) error {
		lat, lon, err := coordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		samples, failures := service.CompareProviders(c.Context(), lat, lon)
		return c.JSON(fiber.Map{
			"current": samples,
			"errors":  failures,
		})
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		query := c.Query("q")
		if len(query) < 2 {
			return fiber.NewError(fiber.StatusBadRequest, "query must be at least 2 characters")
		}

		result, err := service.SearchLocations(c.Context(), query, c.Query("provider"))
		if err != nil {
			return providerError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/providers", func(c *fiber.Ctx) error {
		return c.JSON(service.AvailableProviders())
	})
}

// providerError maps provider-chain failures to 502 and everything else to
// the central 500 handler.
func providerError(err error) error {
	if errors.Is(err, weather.ErrNoProviders) || errors.Is(err, weather.ErrAllProvidersFailed) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// coordinateBody holds one lat/lng pair from a JSON body. Pointers
// distinguish "missing" from a legitimate zero coordinate.
type coordinateBody struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type routeWeatherRequest struct {
	Start                      coordinateBody `json:"start" validate:"required"`
	End                        coordinateBody `json:"end" validate:"required"`
	DepartureIntervals         int            `json:"departureIntervals" validate:"omitempty,min=1,max=24"`
	EstimatedTravelTimeMinutes int            `json:"estimatedTravelTimeMinutes" validate:"omitempty,min=1,max=600"`
	PreferredProvider          string         `json:"preferredProvider" validate:"omitempty,oneof=weatherapi openweathermap tomorrow"`
	PreferredDepartureTime     string         `json:"preferredDepartureTime" validate:"omitempty,datetime=15:04"`
}

func (r *routeWeatherRequest) applyDefaults() {
	if r.DepartureIntervals == 0 {
		r.DepartureIntervals = defaultDepartureIntervals
	}
	if r.EstimatedTravelTimeMinutes == 0 {
		r.EstimatedTravelTimeMinutes = defaultTravelTimeMinutes
	}
}

// preferredTime converts an "HH:MM" local time into the next matching
// instant: today if still ahead, otherwise tomorrow.
func (r *routeWeatherRequest) preferredTime(now time.Time) (*time.Time, error) {
	if r.PreferredDepartureTime == "" {
		return nil, nil
	}

	parsed, err := time.Parse("15:04", r.PreferredDepartureTime)
	if err != nil {
		return nil, errors.New("preferredDepartureTime must be in HH:MM format")
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	if candidate.Before(now) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return &candidate, nil
}

func coordQuery(c *fiber.Ctx) (float64, float64, error) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, errors.New("lat must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, errors.New("lon must be a number between -180 and 180")
	}
	return lat, lon, nil
}
