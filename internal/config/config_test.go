package config

import (
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-app/internal/weather/providers"
)

var configKeys = []string{
	"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "HTTP_TIMEOUT", "LOCATION_TIMEOUT",
	"LOCATION_PERMISSION", "DEVICE_LOCATOR", "DEVICE_LAT", "DEVICE_LON", "IP_LOCATOR_URL",
	"STORE_BACKEND", "STORE_PATH", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenWeatherAPIKey != "" {
		t.Errorf("expected empty API key, got %q", cfg.OpenWeatherAPIKey)
	}
	if cfg.OpenWeatherURL != providers.DefaultOpenWeatherURL {
		t.Errorf("unexpected base URL %q", cfg.OpenWeatherURL)
	}
	if cfg.IPLocatorURL != providers.DefaultIPLocatorURL {
		t.Errorf("unexpected ip locator URL %q", cfg.IPLocatorURL)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("expected transport default timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.LocationTimeout != 10*time.Second {
		t.Errorf("expected 10s location timeout, got %s", cfg.LocationTimeout)
	}
	if cfg.LocationPermission != "undetermined" || cfg.DeviceLocator != "ip" {
		t.Errorf("unexpected location defaults %q %q", cfg.LocationPermission, cfg.DeviceLocator)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "weather-app.db" {
		t.Errorf("unexpected store defaults %+v", cfg.Store)
	}
	if cfg.Port != "8080" {
		t.Errorf("unexpected port %q", cfg.Port)
	}
}

func TestLoadStaticLocator(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEVICE_LOCATOR", "static")
	t.Setenv("DEVICE_LAT", "48.85")
	t.Setenv("DEVICE_LON", "2.35")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.HasDeviceCoords || cfg.DeviceLat != 48.85 || cfg.DeviceLon != 2.35 {
		t.Fatalf("unexpected coordinates %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad http timeout", map[string]string{"HTTP_TIMEOUT": "soon"}, "HTTP_TIMEOUT"},
		{"negative http timeout", map[string]string{"HTTP_TIMEOUT": "-1s"}, "invalid configuration"},
		{"zero location timeout", map[string]string{"LOCATION_TIMEOUT": "0s"}, "invalid configuration"},
		{"unknown permission", map[string]string{"LOCATION_PERMISSION": "maybe"}, "invalid configuration"},
		{"unknown backend", map[string]string{"STORE_BACKEND": "postgres"}, "invalid configuration"},
		{"bad latitude", map[string]string{"DEVICE_LAT": "north"}, "DEVICE_LAT"},
		{"latitude out of range", map[string]string{"DEVICE_LAT": "91", "DEVICE_LON": "0"}, "invalid configuration"},
		{"static without coords", map[string]string{"DEVICE_LOCATOR": "static"}, "DEVICE_LAT and DEVICE_LON"},
		{"non-numeric port", map[string]string{"PORT": "http"}, "invalid configuration"},
		{"bad base url", map[string]string{"OPENWEATHER_BASE_URL": "not a url"}, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
