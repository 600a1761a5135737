package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/i474232898/weather-app/internal/metrics"
	"github.com/i474232898/weather-app/internal/weather"
)

// DefaultTimeout bounds the wait for a device position.
const DefaultTimeout = 10 * time.Second

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrLocationTimeout  = errors.New("location request timed out")
)

const (
	msgPermissionDenied = "Permission to access location was denied. Search for a city manually."
	msgTimedOut         = "Could not fetch location: Location request timed out."
)

// LastLocationSource reads the persisted last-known-good location.
type LastLocationSource interface {
	Load(ctx context.Context) (weather.Location, bool, error)
}

// Resolver decides which location a weather fetch should use: the stored
// last location, the device position, or an explicit city search.
type Resolver struct {
	last    LastLocationSource
	gate    Gate
	locator Locator
	timeout time.Duration
}

type Option func(*Resolver)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewResolver(last LastLocationSource, gate Gate, locator Locator, opts ...Option) *Resolver {
	r := &Resolver{
		last:    last,
		gate:    gate,
		locator: locator,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Startup resolves the location for the first fetch: a well-formed stored
// location wins, otherwise the device position is used.
func (r *Resolver) Startup(ctx context.Context) (weather.Location, error) {
	loc, found, err := r.last.Load(ctx)
	switch {
	case err != nil:
		log.Printf("INFO: ignoring stored last location: %v", err)
	case found:
		metrics.LocationResolutions.WithLabelValues("stored", "ok").Inc()
		return loc, nil
	}
	return r.CurrentLocation(ctx)
}

// Search turns user input into a city location.
func (r *Resolver) Search(input string) (weather.Location, error) {
	city := strings.TrimSpace(input)
	if city == "" {
		metrics.LocationResolutions.WithLabelValues("search", weather.KindValidation.String()).Inc()
		return weather.Location{}, weather.DescribeFetchError(weather.CityLocation(""), weather.ErrEmptyCity)
	}
	metrics.LocationResolutions.WithLabelValues("search", "ok").Inc()
	return weather.CityLocation(city), nil
}

// CurrentLocation checks (and if needed requests) the location permission,
// then waits at most the configured timeout for one position fix. There is
// no retry.
func (r *Resolver) CurrentLocation(ctx context.Context) (weather.Location, error) {
	loc, err := r.currentLocation(ctx)
	outcome := "ok"
	if de, ok := weather.AsDisplayError(err); ok {
		outcome = de.Kind.String()
	}
	metrics.LocationResolutions.WithLabelValues("device", outcome).Inc()
	return loc, err
}

func (r *Resolver) currentLocation(ctx context.Context) (weather.Location, error) {
	if err := r.ensurePermission(ctx); err != nil {
		return weather.Location{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type fix struct {
		coords weather.Coordinates
		err    error
	}
	ch := make(chan fix, 1)
	go func() {
		c, err := r.locator.CurrentPosition(ctx, AccuracyBalanced)
		ch <- fix{coords: c, err: err}
	}()

	select {
	case f := <-ch:
		if f.err != nil {
			if errors.Is(f.err, context.DeadlineExceeded) {
				return weather.Location{}, timedOut(f.err)
			}
			return weather.Location{}, weather.NewDisplayError(weather.KindLocation,
				fmt.Sprintf("Could not fetch location: %v", f.err), f.err)
		}
		return weather.CoordsLocation(f.coords.Lat, f.coords.Lon), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return weather.Location{}, timedOut(ctx.Err())
		}
		return weather.Location{}, weather.NewDisplayError(weather.KindLocation,
			fmt.Sprintf("Could not fetch location: %v", ctx.Err()), ctx.Err())
	}
}

func timedOut(cause error) error {
	return weather.NewDisplayError(weather.KindTimeout, msgTimedOut, fmt.Errorf("%w: %v", ErrLocationTimeout, cause))
}

func (r *Resolver) ensurePermission(ctx context.Context) error {
	status, err := r.gate.Status(ctx)
	if err != nil {
		return weather.NewDisplayError(weather.KindLocation, fmt.Sprintf("Could not fetch location: %v", err), err)
	}
	if status == PermissionGranted {
		return nil
	}

	status, err = r.gate.Request(ctx)
	if err != nil {
		return weather.NewDisplayError(weather.KindLocation, fmt.Sprintf("Could not fetch location: %v", err), err)
	}
	if status != PermissionGranted {
		return weather.NewDisplayError(weather.KindPermission, msgPermissionDenied, ErrPermissionDenied)
	}
	return nil
}
