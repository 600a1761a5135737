package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-app/internal/weather"
)

// DefaultOpenWeatherURL is the current-conditions endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
// Every Current call is a single GET with metric units; there is no retry.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Configured reports whether an API key is set.
func (p *OpenWeatherProvider) Configured() bool {
	return p.apiKey != ""
}

func (p *OpenWeatherProvider) Current(ctx context.Context, loc weather.Location) (weather.CurrentWeather, error) {
	if p.apiKey == "" {
		return weather.CurrentWeather{}, weather.ErrMissingAPIKey
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")

		switch loc.Kind {
		case weather.KindCity:
			values.Set("q", loc.City)
		case weather.KindCoords:
			values.Set("lat", strconv.FormatFloat(loc.Coords.Lat, 'f', -1, 64))
			values.Set("lon", strconv.FormatFloat(loc.Coords.Lon, 'f', -1, 64))
		default:
			return nil, fmt.Errorf("unsupported location kind %q", loc.Kind)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, nil, buildRequest)
	if err != nil {
		return weather.CurrentWeather{}, err
	}
	defer resp.Body.Close()

	var payload weather.CurrentWeather
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentWeather{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}
	if len(payload.Weather) == 0 {
		return weather.CurrentWeather{}, fmt.Errorf("%w: no weather conditions", weather.ErrMalformedResponse)
	}

	return payload, nil
}
