package location

import (
	"context"
	"errors"

	"github.com/i474232898/weather-app/internal/weather"
)

// Accuracy is a hint for how precise a position fix should be.
type Accuracy int

const (
	AccuracyLow Accuracy = iota
	AccuracyBalanced
	AccuracyHigh
)

// Locator returns a single current device position.
type Locator interface {
	CurrentPosition(ctx context.Context, accuracy Accuracy) (weather.Coordinates, error)
}

var ErrNoLocator = errors.New("no location provider available")

// StaticLocator always reports the same position.
type StaticLocator struct {
	Coords weather.Coordinates
}

func (l StaticLocator) CurrentPosition(ctx context.Context, _ Accuracy) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}
	return l.Coords, nil
}

// NoLocator is used when the device has no way to obtain a position.
type NoLocator struct{}

func (NoLocator) CurrentPosition(context.Context, Accuracy) (weather.Coordinates, error) {
	return weather.Coordinates{}, ErrNoLocator
}
