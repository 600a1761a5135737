package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/weather"
)

// DefaultIPLocatorURL answers with the caller's approximate position.
const DefaultIPLocatorURL = "http://ip-api.com/json"

// IPLocator approximates the device position from its public IP address.
// It implements location.Locator; accuracy hints are ignored.
type IPLocator struct {
	url     string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewIPLocator(client *http.Client, url string) *IPLocator {
	if url == "" {
		url = DefaultIPLocatorURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "iplocator",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &IPLocator{
		url:     url,
		client:  client,
		circuit: cb,
	}
}

func (l *IPLocator) CurrentPosition(ctx context.Context, _ location.Accuracy) (weather.Coordinates, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	}

	resp, err := doRequest(ctx, l.client, l.circuit, buildRequest)
	if err != nil {
		return weather.Coordinates{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Coordinates{}, fmt.Errorf("decode ip location: %w", err)
	}
	if payload.Status != "success" {
		if payload.Message == "" {
			payload.Message = "lookup failed"
		}
		return weather.Coordinates{}, fmt.Errorf("ip location: %s", payload.Message)
	}

	return weather.Coordinates{Lat: payload.Lat, Lon: payload.Lon}, nil
}
