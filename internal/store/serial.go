package store

import (
	"context"
	"errors"
	"sync"
)

// Mutation is the outcome of an Update callback.
type Mutation struct {
	Value string
	// Skip leaves the stored value untouched.
	Skip bool
}

// Serial funnels every access to a key through a per-key mutex so that
// read-modify-write sequences on the same key never interleave.
type Serial struct {
	kv KV

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSerial wraps kv.
func NewSerial(kv KV) *Serial {
	return &Serial{
		kv:    kv,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Serial) lock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Get reads key. Absent keys return ErrNotFound.
func (s *Serial) Get(ctx context.Context, key string) (string, error) {
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()
	return s.kv.Get(ctx, key)
}

// Set overwrites key.
func (s *Serial) Set(ctx context.Context, key, value string) error {
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()
	return s.kv.Set(ctx, key, value)
}

// Remove deletes key.
func (s *Serial) Remove(ctx context.Context, key string) error {
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()
	return s.kv.Remove(ctx, key)
}

// Update runs fn with the current value of key (found=false when absent) and
// applies the returned Mutation, all while holding the key's lock. An error
// from fn aborts the update and is returned unchanged.
func (s *Serial) Update(ctx context.Context, key string, fn func(current string, found bool) (Mutation, error)) error {
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	current, err := s.kv.Get(ctx, key)
	found := true
	if errors.Is(err, ErrNotFound) {
		found = false
	} else if err != nil {
		return err
	}

	m, err := fn(current, found)
	if err != nil {
		return err
	}

	if m.Skip {
		return nil
	}
	return s.kv.Set(ctx, key, m.Value)
}

// Close closes the underlying backend.
func (s *Serial) Close() error {
	return s.kv.Close()
}
