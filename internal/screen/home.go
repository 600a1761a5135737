package screen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.uber.org/atomic"

	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/metrics"
	"github.com/i474232898/weather-app/internal/weather"
)

// Resolver produces the location a Home fetch runs for.
type Resolver interface {
	Startup(ctx context.Context) (weather.Location, error)
	Search(input string) (weather.Location, error)
	CurrentLocation(ctx context.Context) (weather.Location, error)
}

// Fetcher is the single-location weather fetch.
type Fetcher interface {
	Fetch(ctx context.Context, loc weather.Location, opts ...weather.FetchOption) (weather.CurrentWeather, error)
}

// HomeState is what the Home screen renders.
type HomeState struct {
	Loading    bool                  `json:"loading"`
	Error      string                `json:"error,omitempty"`
	ErrorKind  string                `json:"errorKind,omitempty"`
	Location   *weather.Location     `json:"location,omitempty"`
	Weather    *weather.Presentation `json:"weather,omitempty"`
	IsFavorite bool                  `json:"isFavorite"`
	Alert      string                `json:"alert,omitempty"`
	// Gradient is the background: the displayed weather's, or the default.
	Gradient []string `json:"gradient"`
}

// Home is the current-weather screen. Every trigger (startup, search, use my
// location) takes a ticket from a generation counter; its result is applied
// only if no newer trigger was issued meanwhile.
type Home struct {
	resolver  Resolver
	fetcher   Fetcher
	favorites *favorites.Store

	gen atomic.Uint64

	mu    sync.Mutex
	state HomeState
}

func NewHome(resolver Resolver, fetcher Fetcher, favs *favorites.Store) *Home {
	return &Home{
		resolver:  resolver,
		fetcher:   fetcher,
		favorites: favs,
	}
}

// Snapshot returns a copy of the current state.
func (h *Home) Snapshot() HomeState {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state
	if s.Weather != nil {
		s.Gradient = append([]string(nil), s.Weather.Gradient...)
	} else {
		s.Gradient = append([]string(nil), weather.DefaultGradient...)
	}
	return s
}

func (h *Home) begin() uint64 {
	ticket := h.gen.Inc()
	h.mu.Lock()
	h.state.Loading = true
	h.state.Error = ""
	h.state.ErrorKind = ""
	h.state.Alert = ""
	h.mu.Unlock()
	return ticket
}

func (h *Home) current(ticket uint64) bool {
	return h.gen.Load() == ticket
}

// apply runs fn on the state if ticket is still the latest.
func (h *Home) apply(ticket uint64, fn func(s *HomeState)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.current(ticket) {
		metrics.StaleResults.Inc()
		log.Printf("DEBUG: dropping stale home result (ticket %d, latest %d)", ticket, h.gen.Load())
		return false
	}
	fn(&h.state)
	return true
}

// fail records err if ticket is still the latest and returns it; a stale
// failure returns nil.
func (h *Home) fail(ticket uint64, err error) error {
	applied := h.apply(ticket, func(s *HomeState) {
		s.Loading = false
		s.Error = weather.Message(err)
		if de, ok := weather.AsDisplayError(err); ok {
			s.ErrorKind = de.Kind.String()
		}
		s.Weather = nil
		s.Location = nil
		s.IsFavorite = false
	})
	if !applied {
		return nil
	}
	return err
}

// Start runs the startup resolution chain and fetches for its result. The
// returned error is the one the screen now shows, if any.
func (h *Home) Start(ctx context.Context) (HomeState, error) {
	ticket := h.begin()
	loc, err := h.resolver.Startup(ctx)
	if err != nil {
		err = h.fail(ticket, err)
		return h.Snapshot(), err
	}
	err = h.fetch(ctx, ticket, loc)
	return h.Snapshot(), err
}

// Search fetches weather for a city typed by the user.
func (h *Home) Search(ctx context.Context, input string) (HomeState, error) {
	ticket := h.begin()
	loc, err := h.resolver.Search(input)
	if err != nil {
		err = h.fail(ticket, err)
		return h.Snapshot(), err
	}
	err = h.fetch(ctx, ticket, loc)
	return h.Snapshot(), err
}

// UseCurrentLocation reruns the permission check and device fix.
func (h *Home) UseCurrentLocation(ctx context.Context) (HomeState, error) {
	ticket := h.begin()
	loc, err := h.resolver.CurrentLocation(ctx)
	if err != nil {
		err = h.fail(ticket, err)
		return h.Snapshot(), err
	}
	err = h.fetch(ctx, ticket, loc)
	return h.Snapshot(), err
}

func (h *Home) fetch(ctx context.Context, ticket uint64, loc weather.Location) error {
	w, err := h.fetcher.Fetch(ctx, loc, weather.OnlyIf(func() bool { return h.current(ticket) }))
	if err != nil {
		return h.fail(ticket, err)
	}

	pres := weather.Present(w)
	fav, ferr := h.favorites.IsFavorite(ctx, favorites.Normalize(w.Name))
	if ferr != nil {
		log.Printf("ERROR: failed to check favorite %q: %v", w.Name, ferr)
	}

	h.apply(ticket, func(s *HomeState) {
		s.Loading = false
		s.Location = &loc
		s.Weather = &pres
		s.IsFavorite = fav
	})
	return nil
}

// ToggleFavorite adds the displayed city to the favorites or removes it.
// The flag flips immediately and is rolled back if persisting fails.
func (h *Home) ToggleFavorite(ctx context.Context) (HomeState, error) {
	h.mu.Lock()
	if h.state.Weather == nil || h.state.Weather.City == "" {
		h.mu.Unlock()
		return h.Snapshot(), weather.NewDisplayError(weather.KindValidation, "No city is displayed.", nil)
	}
	name := favorites.Normalize(h.state.Weather.City)
	was := h.state.IsFavorite
	h.state.IsFavorite = !was
	h.state.Alert = ""
	h.mu.Unlock()

	var err error
	if was {
		if err = h.favorites.Remove(ctx, name); err != nil {
			err = weather.NewDisplayError(weather.KindPersistence, "Could not remove city from favorites.", err)
		}
	} else {
		if _, err = h.favorites.Add(ctx, name); err != nil {
			err = addFavoriteError(name, err)
		}
	}

	if err != nil {
		log.Printf("ERROR: failed to toggle favorite %q: %v", name, err)
		h.mu.Lock()
		if errors.Is(err, favorites.ErrAlreadyExists) {
			h.state.IsFavorite = true
		} else {
			h.state.IsFavorite = was
		}
		h.state.Alert = weather.Message(err)
		h.mu.Unlock()
	}
	return h.Snapshot(), err
}

func addFavoriteError(name string, err error) error {
	if errors.Is(err, favorites.ErrAlreadyExists) {
		return weather.NewDisplayError(weather.KindAlreadyExists, fmt.Sprintf("%q is already in your favorites.", name), err)
	}
	return weather.NewDisplayError(weather.KindPersistence, fmt.Sprintf("Could not add %q to favorites.", name), err)
}
