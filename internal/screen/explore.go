package screen

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"go.uber.org/atomic"

	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/weather"
)

const (
	msgLoadFailed   = "Could not load favorite cities list."
	msgKeyMissing   = "API key is missing."
	msgRemoveFailed = "Could not remove city from favorites."
)

// FavoriteWeather is one rendered card of the Explore list.
type FavoriteWeather struct {
	ID string `json:"id"`
	weather.Presentation
}

// ExploreState is what the Explore screen renders.
type ExploreState struct {
	Loading   bool              `json:"loading"`
	Error     string            `json:"error,omitempty"`
	Favorites []favorites.City  `json:"favorites"`
	Weather   []FavoriteWeather `json:"weather"`
	Alert     string            `json:"alert,omitempty"`
}

// Explore is the favorites screen: the persisted favorites, each with its
// own independently fetched weather.
type Explore struct {
	favorites *favorites.Store
	fetcher   favorites.Fetcher

	gen atomic.Uint64

	mu    sync.Mutex
	state ExploreState
}

func NewExplore(favs *favorites.Store, fetcher favorites.Fetcher) *Explore {
	return &Explore{
		favorites: favs,
		fetcher:   fetcher,
		state: ExploreState{
			Favorites: []favorites.City{},
			Weather:   []FavoriteWeather{},
		},
	}
}

// Snapshot returns a copy of the current state.
func (e *Explore) Snapshot() ExploreState {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.Favorites = make([]favorites.City, len(e.state.Favorites))
	copy(s.Favorites, e.state.Favorites)
	s.Weather = make([]FavoriteWeather, len(e.state.Weather))
	copy(s.Weather, e.state.Weather)
	return s
}

// Load reloads the favorites and their weather. It runs whenever the screen
// gains focus.
func (e *Explore) Load(ctx context.Context) ExploreState {
	ticket := e.gen.Inc()
	e.mu.Lock()
	e.state.Loading = true
	e.state.Error = ""
	e.state.Favorites = []favorites.City{}
	e.state.Weather = []FavoriteWeather{}
	e.mu.Unlock()

	cities, entries, err := e.favorites.ListWithWeather(ctx, e.fetcher)

	e.mu.Lock()
	if e.gen.Load() == ticket {
		e.state.Loading = false
		switch {
		case err != nil && cities == nil:
			log.Printf("ERROR: failed to load favorites: %v", err)
			e.state.Error = msgLoadFailed
		case errors.Is(err, weather.ErrMissingAPIKey):
			e.state.Favorites = cities
			e.state.Error = msgKeyMissing
		default:
			e.state.Favorites = cities
			e.state.Weather = cards(entries)
		}
	}
	e.mu.Unlock()

	return e.Snapshot()
}

func cards(entries []favorites.Entry) []FavoriteWeather {
	out := make([]FavoriteWeather, 0, len(entries))
	for _, en := range entries {
		out = append(out, FavoriteWeather{ID: en.City.Name, Presentation: weather.Present(en.Weather)})
	}
	return out
}

// Add inserts a favorite. Empty input is ignored. The in-memory list is
// updated first and rolled back if persisting fails; a successful add
// reloads the screen.
func (e *Explore) Add(ctx context.Context, input string) (ExploreState, error) {
	if strings.TrimSpace(input) == "" {
		return e.Snapshot(), nil
	}
	name := favorites.Normalize(input)

	e.mu.Lock()
	e.state.Alert = ""
	if favorites.Contains(e.state.Favorites, name) {
		err := addFavoriteError(name, favorites.ErrAlreadyExists)
		e.state.Alert = weather.Message(err)
		e.mu.Unlock()
		return e.Snapshot(), err
	}
	previous := append([]favorites.City(nil), e.state.Favorites...)
	updated := append(append([]favorites.City(nil), previous...), favorites.City{Name: name})
	favorites.Sort(updated)
	e.state.Favorites = updated
	e.mu.Unlock()

	if _, err := e.favorites.Add(ctx, name); err != nil {
		derr := addFavoriteError(name, err)
		log.Printf("ERROR: failed to save new favorite %q: %v", name, err)
		e.mu.Lock()
		if !errors.Is(err, favorites.ErrAlreadyExists) {
			e.state.Favorites = previous
		}
		e.state.Alert = weather.Message(derr)
		e.mu.Unlock()
		return e.Snapshot(), derr
	}

	return e.Load(ctx), nil
}

// Remove deletes a favorite by exact name and prunes its weather card. If
// persisting fails the list is reloaded once.
func (e *Explore) Remove(ctx context.Context, name string) (ExploreState, error) {
	e.mu.Lock()
	e.state.Alert = ""
	kept := make([]favorites.City, 0, len(e.state.Favorites))
	for _, c := range e.state.Favorites {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	cardsKept := make([]FavoriteWeather, 0, len(e.state.Weather))
	for _, w := range e.state.Weather {
		if w.ID != name && w.City != name {
			cardsKept = append(cardsKept, w)
		}
	}
	e.state.Favorites = kept
	e.state.Weather = cardsKept
	e.mu.Unlock()

	if err := e.favorites.Remove(ctx, name); err != nil {
		log.Printf("ERROR: failed to remove favorite %q: %v", name, err)
		derr := weather.NewDisplayError(weather.KindPersistence, msgRemoveFailed, err)
		e.Load(ctx)
		e.mu.Lock()
		e.state.Alert = derr.Message
		e.mu.Unlock()
		return e.Snapshot(), derr
	}
	return e.Snapshot(), nil
}
