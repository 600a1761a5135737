package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
)

// LastLocationKey is the persisted key of the last successfully fetched location.
const LastLocationKey = "weatherAppLastLocation"

const lastLocationSchema = `{
  "oneOf": [
    {
      "type": "object",
      "required": ["type", "value"],
      "properties": {
        "type": {"const": "city"},
        "value": {"type": "string", "minLength": 1}
      }
    },
    {
      "type": "object",
      "required": ["type", "value"],
      "properties": {
        "type": {"const": "coords"},
        "value": {
          "type": "object",
          "required": ["lat", "lon"],
          "properties": {
            "lat": {"type": "number"},
            "lon": {"type": "number"}
          }
        }
      }
    }
  ]
}`

var lastLocationValidator = mustCompile("last-location.json", lastLocationSchema)

// ErrMalformed marks a persisted value that does not match its schema.
var ErrMalformed = errors.New("malformed persisted location")

func mustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// lastLocationDoc is the persisted form:
// {"type":"city","value":"Paris"} or {"type":"coords","value":{"lat":1,"lon":2}}.
type lastLocationDoc struct {
	Type  weather.LocationKind `json:"type"`
	Value json.RawMessage      `json:"value"`
}

// EncodeLastLocation renders loc in its persisted JSON form.
func EncodeLastLocation(loc weather.Location) (string, error) {
	var value any
	switch loc.Kind {
	case weather.KindCity:
		value = loc.City
	case weather.KindCoords:
		value = loc.Coords
	default:
		return "", fmt.Errorf("unknown location kind %q", loc.Kind)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(lastLocationDoc{Type: loc.Kind, Value: raw})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeLastLocation parses and validates a persisted value.
func DecodeLastLocation(data string) (weather.Location, error) {
	var raw any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := lastLocationValidator.Validate(raw); err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var doc lastLocationDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch doc.Type {
	case weather.KindCity:
		var city string
		if err := json.Unmarshal(doc.Value, &city); err != nil {
			return weather.Location{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return weather.CityLocation(city), nil
	default:
		var c weather.Coordinates
		if err := json.Unmarshal(doc.Value, &c); err != nil {
			return weather.Location{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return weather.CoordsLocation(c.Lat, c.Lon), nil
	}
}

// Repository persists the last-known-good location. It satisfies
// weather.LastLocationRecorder.
type Repository struct {
	kv *store.Serial
}

func NewRepository(kv *store.Serial) *Repository {
	return &Repository{kv: kv}
}

// Load returns the persisted location. found is false when the key is absent;
// a malformed value returns an error wrapping ErrMalformed.
func (r *Repository) Load(ctx context.Context) (loc weather.Location, found bool, err error) {
	data, err := r.kv.Get(ctx, LastLocationKey)
	if errors.Is(err, store.ErrNotFound) {
		return weather.Location{}, false, nil
	}
	if err != nil {
		return weather.Location{}, false, fmt.Errorf("failed to read last location: %w", err)
	}
	loc, err = DecodeLastLocation(data)
	if err != nil {
		return weather.Location{}, false, err
	}
	return loc, true, nil
}

func (r *Repository) Save(ctx context.Context, loc weather.Location) error {
	data, err := EncodeLastLocation(loc)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, LastLocationKey, data)
}

func (r *Repository) Clear(ctx context.Context) error {
	return r.kv.Remove(ctx, LastLocationKey)
}
