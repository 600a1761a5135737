package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-app/internal/metrics"
	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
)

// Key is the persisted key of the favorites list.
const Key = "weatherAppFavorites"

const listSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name"],
    "properties": {"name": {"type": "string"}}
  }
}`

var listValidator = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("favorites.json", strings.NewReader(listSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("favorites.json")
}()

var (
	ErrAlreadyExists = errors.New("city is already a favorite")
	ErrEmptyName     = errors.New("favorite name is empty")
	ErrMalformed     = errors.New("malformed favorites list")
)

// City is one persisted favorite. Name is stored normalized.
type City struct {
	Name string `json:"name"`
}

// Normalize trims name and title-cases it: first letter upper, rest lower.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// Sort orders cities by name with a locale-aware comparison.
func Sort(cities []City) {
	c := collate.New(language.Und)
	sort.SliceStable(cities, func(i, j int) bool {
		return c.CompareString(cities[i].Name, cities[j].Name) < 0
	})
}

// Contains reports whether cities holds name, ignoring case.
func Contains(cities []City, name string) bool {
	for _, c := range cities {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Store is the favorites set persisted as a JSON array sorted by name.
// Every mutation is a serialized read-modify-write of Key.
type Store struct {
	kv *store.Serial
}

func NewStore(kv *store.Serial) *Store {
	return &Store{kv: kv}
}

func decode(data string) ([]City, error) {
	var raw any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := listValidator.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var cities []City
	if err := json.Unmarshal([]byte(data), &cities); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return cities, nil
}

func encode(cities []City) (string, error) {
	if cities == nil {
		cities = []City{}
	}
	b, err := json.Marshal(cities)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// List returns the persisted favorites. An absent key is an empty list.
func (s *Store) List(ctx context.Context) ([]City, error) {
	data, err := s.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		metrics.Favorites.Set(0)
		return []City{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	cities, err := decode(data)
	if err != nil {
		return nil, err
	}
	metrics.Favorites.Set(float64(len(cities)))
	return cities, nil
}

// Add normalizes name and inserts it unless a case-insensitively equal entry
// exists, in which case ErrAlreadyExists is returned and nothing is written.
func (s *Store) Add(ctx context.Context, name string) (City, error) {
	city := City{Name: Normalize(name)}
	if city.Name == "" {
		return City{}, ErrEmptyName
	}

	var size int
	err := s.kv.Update(ctx, Key, func(current string, found bool) (store.Mutation, error) {
		var cities []City
		if found {
			var err error
			if cities, err = decode(current); err != nil {
				return store.Mutation{}, err
			}
		}
		if Contains(cities, city.Name) {
			return store.Mutation{}, ErrAlreadyExists
		}
		cities = append(cities, city)
		Sort(cities)
		size = len(cities)

		data, err := encode(cities)
		if err != nil {
			return store.Mutation{}, err
		}
		return store.Mutation{Value: data}, nil
	})
	if err != nil {
		return city, err
	}
	metrics.Favorites.Set(float64(size))
	return city, nil
}

// Remove deletes the entry whose name equals name exactly.
func (s *Store) Remove(ctx context.Context, name string) error {
	var size int
	err := s.kv.Update(ctx, Key, func(current string, found bool) (store.Mutation, error) {
		if !found {
			return store.Mutation{Skip: true}, nil
		}
		cities, err := decode(current)
		if err != nil {
			return store.Mutation{}, err
		}
		kept := make([]City, 0, len(cities))
		for _, c := range cities {
			if c.Name != name {
				kept = append(kept, c)
			}
		}
		size = len(kept)
		if len(kept) == len(cities) {
			return store.Mutation{Skip: true}, nil
		}

		data, err := encode(kept)
		if err != nil {
			return store.Mutation{}, err
		}
		return store.Mutation{Value: data}, nil
	})
	if err != nil {
		return err
	}
	metrics.Favorites.Set(float64(size))
	return nil
}

// IsFavorite is an exact-name membership check.
func (s *Store) IsFavorite(ctx context.Context, name string) (bool, error) {
	cities, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cities {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Fetcher is the subset of weather.Service the aggregate view needs.
type Fetcher interface {
	Configured() bool
	FetchAll(ctx context.Context, locs []weather.Location) []weather.Settled
}

// Entry pairs a favorite with its current weather.
type Entry struct {
	City    City
	Weather weather.CurrentWeather
}

// ListWithWeather reads the favorites and fetches weather for each of them
// concurrently. Failed fetches are dropped; the rest keep favorites order.
// Without an API key the list is returned with weather.ErrMissingAPIKey and
// no fetch is made.
func (s *Store) ListWithWeather(ctx context.Context, f Fetcher) ([]City, []Entry, error) {
	cities, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(cities) == 0 {
		return cities, []Entry{}, nil
	}
	if !f.Configured() {
		return cities, nil, weather.ErrMissingAPIKey
	}

	locs := make([]weather.Location, len(cities))
	for i, c := range cities {
		locs[i] = weather.CityLocation(c.Name)
	}

	ok := weather.Succeeded(f.FetchAll(ctx, locs))
	entries := make([]Entry, 0, len(ok))
	for _, r := range ok {
		entries = append(entries, Entry{City: City{Name: r.Location.City}, Weather: r.Weather})
	}
	return cities, entries, nil
}
