package weather

import (
	"fmt"
	"strconv"
	"time"
)

// Condition is the weather category encoded by the two-digit prefix of a
// provider icon code.
type Condition string

const (
	ConditionUnknown         Condition = "unknown"
	ConditionClear           Condition = "clear"
	ConditionFewClouds       Condition = "few_clouds"
	ConditionScatteredClouds Condition = "scattered_clouds"
	ConditionBrokenClouds    Condition = "broken_clouds"
	ConditionShowers         Condition = "showers"
	ConditionRain            Condition = "rain"
	ConditionStorm           Condition = "storm"
	ConditionSnow            Condition = "snow"
	ConditionMist            Condition = "mist"
)

// Daypart is the day/night suffix of an icon code.
type Daypart string

const (
	Day   Daypart = "d"
	Night Daypart = "n"
)

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationKind tells which half of a Location is populated.
type LocationKind string

const (
	KindCity   LocationKind = "city"
	KindCoords LocationKind = "coords"
)

// Location is a resolved location: either a city name or a coordinate pair.
type Location struct {
	Kind   LocationKind `json:"type"`
	City   string       `json:"city,omitempty"`
	Coords Coordinates  `json:"coords"`
}

func CityLocation(name string) Location {
	return Location{Kind: KindCity, City: name}
}

func CoordsLocation(lat, lon float64) Location {
	return Location{Kind: KindCoords, Coords: Coordinates{Lat: lat, Lon: lon}}
}

// Key returns a canonical string key for logging and metrics.
func (l Location) Key() string {
	if l.Kind == KindCoords {
		return strconv.FormatFloat(l.Coords.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Coords.Lon, 'f', -1, 64)
	}
	return l.City
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Kind, l.Key())
}

// CurrentWeather is the part of the provider's current-conditions payload
// the app consumes. Other fields of the response are ignored.
type CurrentWeather struct {
	Name    string        `json:"name"`
	Main    MainReading   `json:"main"`
	Weather []Description `json:"weather"`
	// Dt is the observation time in unix seconds.
	Dt int64 `json:"dt"`
}

type MainReading struct {
	Temp float64 `json:"temp"`
}

type Description struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Primary returns the first weather description, or a zero value.
func (w CurrentWeather) Primary() Description {
	if len(w.Weather) == 0 {
		return Description{}
	}
	return w.Weather[0]
}

func (w CurrentWeather) ObservedAt() time.Time {
	return time.Unix(w.Dt, 0).UTC()
}
