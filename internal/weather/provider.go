package weather

import (
	"context"
)

// Provider abstracts the current-conditions source (e.g. OpenWeatherMap).
// Implementations issue exactly one request per call.
type Provider interface {
	Name() string
	Current(ctx context.Context, loc Location) (CurrentWeather, error)
}

// Configurable is implemented by providers that can be missing credentials.
type Configurable interface {
	Configured() bool
}

// LastLocationRecorder receives the side effects of a fetch made for a
// resolved location.
type LastLocationRecorder interface {
	Save(ctx context.Context, loc Location) error
	Clear(ctx context.Context) error
}
