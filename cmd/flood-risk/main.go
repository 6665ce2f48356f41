package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/flood-risk/internal/api/http"
	"github.com/i474232898/flood-risk/internal/config"
	"github.com/i474232898/flood-risk/internal/district"
	"github.com/i474232898/flood-risk/internal/flood"
	"github.com/i474232898/flood-risk/internal/observability"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/scheduler"
	"github.com/i474232898/flood-risk/internal/store"
	"github.com/i474232898/flood-risk/internal/weather"
	"github.com/i474232898/flood-risk/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The risk table is loaded once; a broken table stops start-up.
	if cfg.RiskTablePath == "" {
		log.Println("WARN: RISK_TABLE_PATH is not set; using the built-in illustrative risk table, not historical data")
	}
	table, err := risk.LoadTable(cfg.RiskTablePath)
	if err != nil {
		log.Fatalf("failed to load risk table: %v", err)
	}
	log.Printf("INFO: risk table loaded with %d districts", table.Len())

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)

	// Providers with resilience (backoff + circuit breaker). Keyed providers
	// are only registered when their key is set.
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	if cfg.OpenMeteoEnabled {
		provs = append(provs, providers.NewOpenMeteoProvider(httpClient))
	}
	if len(provs) == 0 {
		log.Println("INFO: no weather providers configured; assessments use default weather")
	}
	metrics.SetProvidersConfigured(len(provs))

	// Weather service: cached lookups for requests, fetch-and-store for the scheduler.
	weatherSvc := weather.NewService(memStore, provs,
		weather.WithClock(clock),
		weather.WithMaxAge(cfg.WeatherMaxAge),
		weather.WithMetrics(metrics),
	)

	resolver := district.NewResolver(district.GoogleGeocoder(cfg.GeocoderAPIKey))
	floodSvc := flood.NewService(table, weatherSvc,
		flood.WithClock(clock),
		flood.WithResolver(resolver),
		flood.WithMetrics(metrics),
	)

	// Scheduler that periodically refreshes every district.
	sched := scheduler.New(scheduler.DistrictLocations(), cfg.RefreshInterval, weatherSvc, metrics)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "flood-risk",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":           "ok",
			"service":          "flood-risk",
			"trackedLocations": memStore.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, floodSvc, weatherSvc, table)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("INFO: fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("ERROR: error during shutdown: %v", err)
	}
}
