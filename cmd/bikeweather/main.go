package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/kacan98/weather/internal/api/http"
	"github.com/kacan98/weather/internal/bike"
	"github.com/kacan98/weather/internal/config"
	"github.com/kacan98/weather/internal/route"
	"github.com/kacan98/weather/internal/scheduler"
	"github.com/kacan98/weather/internal/store"
	"github.com/kacan98/weather/internal/weather"
	"github.com/kacan98/weather/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Forecast cache with configured retention.
	cache := store.NewMemoryCache(cfg.CacheTTL, cfg.CacheMaxEntries)

	// Weather providers with resilience (backoff + circuit breaker),
	// registered in default fallback order.
	service := weather.NewService([]weather.Provider{
		providers.NewWeatherAPIProvider(httpClient),
		providers.NewOpenWeatherProvider(httpClient),
		providers.NewTomorrowProvider(httpClient),
	}, cache)
	service.Initialize(cfg.WeatherProviders)

	// Routing backends; missing keys leave the straight-line fallback.
	var routeProviders []route.Provider
	if ors, err := route.NewORSProvider(httpClient, cfg.OpenRouteServiceAPIKey); err == nil {
		routeProviders = append(routeProviders, ors)
	} else {
		log.Printf("INFO: openrouteservice disabled: %v", err)
	}
	if gh, err := route.NewGraphHopperProvider(httpClient, cfg.GraphHopperAPIKey); err == nil {
		routeProviders = append(routeProviders, gh)
	} else {
		log.Printf("INFO: graphhopper disabled: %v", err)
	}
	sampler := route.NewSampler(routeProviders...)

	generator := bike.NewGenerator(service)

	// Scheduler that periodically sweeps the forecast cache.
	sched := scheduler.New(cache, cfg.CacheSweepInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "bikeweather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "bikeweather",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, sampler, generator)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
