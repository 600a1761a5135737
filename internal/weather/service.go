package weather

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-app/internal/metrics"
)

// Service is the weather fetch orchestrator: one provider call per Fetch,
// failures converted to a DisplayError, and the last-known-good location
// recorded or cleared according to the outcome.
type Service struct {
	provider Provider
	recorder LastLocationRecorder
}

// NewService creates a new Service. recorder may be nil.
func NewService(provider Provider, recorder LastLocationRecorder) *Service {
	return &Service{
		provider: provider,
		recorder: recorder,
	}
}

// Configured reports whether the provider has the credentials it needs.
func (s *Service) Configured() bool {
	if c, ok := s.provider.(Configurable); ok {
		return c.Configured()
	}
	return true
}

type fetchOptions struct {
	commit func() bool
}

// FetchOption customizes a single Fetch.
type FetchOption func(*fetchOptions)

// OnlyIf makes the last-location side effect conditional on commit returning
// true once the provider has answered. Callers use it to drop the side
// effect of a superseded request.
func OnlyIf(commit func() bool) FetchOption {
	return func(o *fetchOptions) {
		o.commit = commit
	}
}

// Fetch retrieves current weather for loc. No retries, no caching. On success
// loc becomes the persisted last location; on a provider failure the
// persisted last location is cleared. Validation and configuration errors
// never reach the provider and leave persisted state alone.
func (s *Service) Fetch(ctx context.Context, loc Location, opts ...FetchOption) (CurrentWeather, error) {
	o := fetchOptions{commit: func() bool { return true }}
	for _, opt := range opts {
		opt(&o)
	}

	if loc.Kind == KindCity && strings.TrimSpace(loc.City) == "" {
		return CurrentWeather{}, DescribeFetchError(loc, ErrEmptyCity)
	}
	if !s.Configured() {
		metrics.WeatherFetches.WithLabelValues(string(loc.Kind), KindConfig.String()).Inc()
		return CurrentWeather{}, DescribeFetchError(loc, ErrMissingAPIKey)
	}

	id := uuid.New()
	start := time.Now()
	log.Printf("DEBUG: fetch %s: %s via %s", id, loc, s.provider.Name())

	w, err := s.provider.Current(ctx, loc)
	if err != nil {
		derr := DescribeFetchError(loc, err)
		metrics.WeatherFetches.WithLabelValues(string(loc.Kind), derr.Kind.String()).Inc()
		log.Printf("ERROR: fetch %s: %s failed after %s: %v", id, loc, time.Since(start), err)

		if errors.Is(err, ErrMissingAPIKey) {
			return CurrentWeather{}, derr
		}
		if s.recorder != nil && o.commit() {
			if cerr := s.recorder.Clear(ctx); cerr != nil {
				log.Printf("ERROR: fetch %s: failed to clear last location: %v", id, cerr)
			}
		}
		return CurrentWeather{}, derr
	}

	metrics.WeatherFetches.WithLabelValues(string(loc.Kind), "ok").Inc()
	log.Printf("DEBUG: fetch %s: %s -> %q in %s", id, loc, w.Name, time.Since(start))

	if s.recorder != nil && o.commit() {
		if serr := s.recorder.Save(ctx, loc); serr != nil {
			log.Printf("ERROR: fetch %s: failed to save last location: %v", id, serr)
		}
	}
	return w, nil
}
