package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-app/internal/api/http"
	"github.com/i474232898/weather-app/internal/config"
	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/screen"
	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
	"github.com/i474232898/weather-app/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	serial := store.NewSerial(kv)
	defer serial.Close()

	// Shared HTTP client for outbound calls. A zero timeout leaves it to the transport.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherURL)
	if !provider.Configured() {
		log.Printf("ERROR: OPENWEATHER_API_KEY is not set; weather fetches are disabled")
	}

	last := location.NewRepository(serial)
	initial, err := location.ParsePermission(cfg.LocationPermission)
	if err != nil {
		log.Fatalf("failed to parse location permission: %v", err)
	}
	gate := location.NewMemoryGate(initial, nil)
	resolver := location.NewResolver(last, gate, newLocator(cfg, httpClient), location.WithTimeout(cfg.LocationTimeout))

	service := weather.NewService(provider, last)
	favs := favorites.NewStore(serial)

	home := screen.NewHome(resolver, service, favs)
	explore := screen.NewExplore(favs, service)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-app",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"service":    "weather-app",
			"configured": provider.Configured(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Home:       home,
		Explore:    explore,
		Permission: gate,
	})

	// Startup resolution runs once, in the background; user actions may overtake it.
	go func() {
		if _, err := home.Start(ctx); err != nil {
			log.Printf("INFO: startup resolution ended with: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s (store=%s, locator=%s)", cfg.Port, cfg.Store.Backend, cfg.DeviceLocator)

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.KV, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := store.NewSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := store.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		log.Printf("INFO: using in-memory store; favorites will not survive a restart")
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func newLocator(cfg *config.AppConfig, client *http.Client) location.Locator {
	switch cfg.DeviceLocator {
	case "static":
		return location.StaticLocator{Coords: weather.Coordinates{Lat: cfg.DeviceLat, Lon: cfg.DeviceLon}}
	case "ip":
		return providers.NewIPLocator(client, cfg.IPLocatorURL)
	}
	return location.NoLocator{}
}
