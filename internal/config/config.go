package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-app/internal/weather/providers"
)

type AppConfig struct {
	// OpenWeatherAPIKey may be empty; the app then runs in a configuration error state.
	OpenWeatherAPIKey string
	OpenWeatherURL    string `validate:"required,url"`

	// HTTPTimeout bounds outbound weather calls. Zero leaves it to the transport.
	HTTPTimeout time.Duration `validate:"gte=0"`

	// LocationTimeout bounds the wait for a single device position.
	LocationTimeout time.Duration `validate:"gt=0"`

	LocationPermission string `validate:"oneof=granted denied undetermined"`

	DeviceLocator string `validate:"oneof=static ip none"`
	// HasDeviceCoords is set when both DEVICE_LAT and DEVICE_LON are present.
	HasDeviceCoords bool
	DeviceLat       float64 `validate:"gte=-90,lte=90"`
	DeviceLon       float64 `validate:"gte=-180,lte=180"`
	IPLocatorURL    string  `validate:"required,url"`

	Store StoreConfig

	Port string `validate:"required,numeric"`
}

// StoreConfig selects the persistence backend for favorites and last location.
type StoreConfig struct {
	Backend       string `validate:"oneof=sqlite redis memory"`
	Path          string `validate:"required_if=Backend sqlite"`
	RedisAddr     string `validate:"required_if=Backend redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherURL = getenvDefault("OPENWEATHER_BASE_URL", providers.DefaultOpenWeatherURL)

	httpTimeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	locTimeout, err := time.ParseDuration(getenvDefault("LOCATION_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_TIMEOUT: %w", err)
	}
	cfg.LocationTimeout = locTimeout

	cfg.LocationPermission = getenvDefault("LOCATION_PERMISSION", "undetermined")
	cfg.DeviceLocator = getenvDefault("DEVICE_LOCATOR", "ip")
	cfg.IPLocatorURL = getenvDefault("IP_LOCATOR_URL", providers.DefaultIPLocatorURL)

	lat, err := getenvFloat("DEVICE_LAT")
	if err != nil {
		return nil, err
	}
	lon, err := getenvFloat("DEVICE_LON")
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		cfg.HasDeviceCoords = true
		cfg.DeviceLat, cfg.DeviceLon = *lat, *lon
	}

	cfg.Store = StoreConfig{
		Backend:       getenvDefault("STORE_BACKEND", "sqlite"),
		Path:          getenvDefault("STORE_PATH", "weather-app.db"),
		RedisAddr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.DeviceLocator == "static" && !cfg.HasDeviceCoords {
		return nil, fmt.Errorf("DEVICE_LOCATOR=static requires DEVICE_LAT and DEVICE_LON")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
