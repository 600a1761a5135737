package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key is absent from the store.
	ErrNotFound = errors.New("key not found")
)

// KV is the contract every persistence backend satisfies: string values
// addressed by string keys, surviving restarts for the durable backends.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
