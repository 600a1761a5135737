package location

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
)

type countingLocator struct {
	calls  atomic.Int32
	coords weather.Coordinates
	err    error
	// block waits for ctx instead of answering.
	block bool
}

func (l *countingLocator) CurrentPosition(ctx context.Context, _ Accuracy) (weather.Coordinates, error) {
	l.calls.Add(1)
	if l.block {
		<-ctx.Done()
		return weather.Coordinates{}, ctx.Err()
	}
	return l.coords, l.err
}

type countingGate struct {
	status   Permission
	answer   Permission
	requests int
}

func (g *countingGate) Status(context.Context) (Permission, error) { return g.status, nil }

func (g *countingGate) Request(context.Context) (Permission, error) {
	g.requests++
	return g.answer, nil
}

func newRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(store.NewSerial(store.NewMemoryStore()))
}

func TestStartupUsesStoredLocation(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Save(ctx, weather.CityLocation("Paris")); err != nil {
		t.Fatalf("save: %v", err)
	}
	locator := &countingLocator{}
	gate := &countingGate{status: PermissionGranted}

	loc, err := NewResolver(repo, gate, locator).Startup(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != weather.CityLocation("Paris") {
		t.Fatalf("expected stored city, got %+v", loc)
	}
	if locator.calls.Load() != 0 {
		t.Fatalf("device must not be queried, got %d calls", locator.calls.Load())
	}
}

func TestStartupFallsThroughMalformedStoredLocation(t *testing.T) {
	ctx := context.Background()
	kv := store.NewSerial(store.NewMemoryStore())
	if err := kv.Set(ctx, LastLocationKey, `{"type":"city"`); err != nil {
		t.Fatalf("set: %v", err)
	}
	locator := &countingLocator{coords: weather.Coordinates{Lat: 10, Lon: 20}}
	gate := &countingGate{status: PermissionGranted}

	loc, err := NewResolver(NewRepository(kv), gate, locator).Startup(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != weather.CoordsLocation(10, 20) {
		t.Fatalf("expected device coords, got %+v", loc)
	}
}

func TestPermissionDeniedNeverQueriesDevice(t *testing.T) {
	locator := &countingLocator{}
	gate := &countingGate{status: PermissionUndetermined, answer: PermissionDenied}

	_, err := NewResolver(newRepo(t), gate, locator).Startup(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	de, ok := weather.AsDisplayError(err)
	if !ok || de.Kind != weather.KindPermission {
		t.Fatalf("expected permission display error, got %v", err)
	}
	if de.Message != "Permission to access location was denied. Search for a city manually." {
		t.Fatalf("unexpected message %q", de.Message)
	}
	if gate.requests != 1 {
		t.Fatalf("expected one permission request, got %d", gate.requests)
	}
	if locator.calls.Load() != 0 {
		t.Fatalf("expected zero device queries, got %d", locator.calls.Load())
	}
}

func TestGrantedPermissionIsNotRequestedAgain(t *testing.T) {
	locator := &countingLocator{coords: weather.Coordinates{Lat: 1, Lon: 2}}
	gate := &countingGate{status: PermissionGranted}

	loc, err := NewResolver(newRepo(t), gate, locator).CurrentLocation(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != weather.CoordsLocation(1, 2) {
		t.Fatalf("unexpected location %+v", loc)
	}
	if gate.requests != 0 {
		t.Fatalf("expected no permission request, got %d", gate.requests)
	}
	if locator.calls.Load() != 1 {
		t.Fatalf("expected one device query, got %d", locator.calls.Load())
	}
}

func TestCurrentLocationTimeout(t *testing.T) {
	locator := &countingLocator{block: true}
	gate := &countingGate{status: PermissionGranted}
	r := NewResolver(newRepo(t), gate, locator, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := r.CurrentLocation(context.Background())
	if !errors.Is(err, ErrLocationTimeout) {
		t.Fatalf("expected ErrLocationTimeout, got %v", err)
	}
	if weather.Message(err) != "Could not fetch location: Location request timed out." {
		t.Fatalf("unexpected message %q", weather.Message(err))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
	if locator.calls.Load() != 1 {
		t.Fatalf("expected exactly one device query, got %d", locator.calls.Load())
	}
}

func TestDefaultTimeout(t *testing.T) {
	r := NewResolver(newRepo(t), &countingGate{}, NoLocator{})
	if r.timeout != 10*time.Second {
		t.Fatalf("expected 10s default, got %s", r.timeout)
	}
	r = NewResolver(newRepo(t), &countingGate{}, NoLocator{}, WithTimeout(0))
	if r.timeout != DefaultTimeout {
		t.Fatalf("zero override must keep the default, got %s", r.timeout)
	}
}

func TestCurrentLocationDeviceError(t *testing.T) {
	gate := &countingGate{status: PermissionGranted}
	_, err := NewResolver(newRepo(t), gate, NoLocator{}).CurrentLocation(context.Background())
	if !errors.Is(err, ErrNoLocator) {
		t.Fatalf("expected ErrNoLocator, got %v", err)
	}
	if got := weather.Message(err); got != "Could not fetch location: no location provider available" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSearch(t *testing.T) {
	r := NewResolver(newRepo(t), &countingGate{}, NoLocator{})

	loc, err := r.Search("  Oslo ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != weather.CityLocation("Oslo") {
		t.Fatalf("expected trimmed city, got %+v", loc)
	}

	_, err = r.Search("   ")
	if !errors.Is(err, weather.ErrEmptyCity) {
		t.Fatalf("expected ErrEmptyCity, got %v", err)
	}
	if weather.Message(err) != "Please enter a city name." {
		t.Fatalf("unexpected message %q", weather.Message(err))
	}
}

func TestMemoryGate(t *testing.T) {
	ctx := context.Background()

	g := NewMemoryGate(PermissionUndetermined, nil)
	if p, _ := g.Request(ctx); p != PermissionDenied {
		t.Fatalf("request without prompt must deny, got %s", p)
	}

	g = NewMemoryGate(PermissionUndetermined, func(context.Context) (bool, error) { return true, nil })
	if p, _ := g.Request(ctx); p != PermissionGranted {
		t.Fatalf("expected granted, got %s", p)
	}
	if p, _ := g.Status(ctx); p != PermissionGranted {
		t.Fatalf("expected granted status, got %s", p)
	}

	g.Set(PermissionDenied)
	if p, _ := g.Request(ctx); p != PermissionDenied {
		t.Fatalf("decided permission must not be re-prompted, got %s", p)
	}

	if _, err := ParsePermission("maybe"); err == nil {
		t.Fatal("expected error for unknown permission")
	}
}
