package weather

import (
	"context"
	"log"
	"sync"

	"github.com/i474232898/weather-app/internal/metrics"
)

// Settled is the outcome of one fetch in a FetchAll batch.
type Settled struct {
	Location Location
	Weather  CurrentWeather
	Err      error
}

// FetchAll fetches every location concurrently and waits for all of them to
// settle; one failure never aborts the others. Results come back in input
// order. These lookups bypass the last-location side effect.
func (s *Service) FetchAll(ctx context.Context, locs []Location) []Settled {
	results := make([]Settled, len(locs))
	if len(locs) == 0 {
		return results
	}

	if !s.Configured() {
		for i, loc := range locs {
			results[i] = Settled{Location: loc, Err: DescribeFetchError(loc, ErrMissingAPIKey)}
		}
		return results
	}

	var wg sync.WaitGroup
	for i, loc := range locs {
		wg.Add(1)
		go func(i int, loc Location) {
			defer wg.Done()

			w, err := s.provider.Current(ctx, loc)
			if err != nil {
				derr := DescribeFetchError(loc, err)
				metrics.WeatherFetches.WithLabelValues(string(loc.Kind), derr.Kind.String()).Inc()
				log.Printf("provider %s fetch failed for %s: %v", s.provider.Name(), loc.Key(), err)
				results[i] = Settled{Location: loc, Err: derr}
				return
			}
			metrics.WeatherFetches.WithLabelValues(string(loc.Kind), "ok").Inc()
			results[i] = Settled{Location: loc, Weather: w}
		}(i, loc)
	}
	wg.Wait()

	return results
}

// Succeeded keeps only the successful results, preserving order.
func Succeeded(results []Settled) []Settled {
	out := make([]Settled, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}
