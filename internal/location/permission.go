package location

import (
	"context"
	"fmt"
	"sync"
)

// Permission is the state of the foreground-location permission.
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionGranted, PermissionDenied, PermissionUndetermined:
		return p, nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// Gate is the device's foreground-location permission capability.
type Gate interface {
	Status(ctx context.Context) (Permission, error)
	Request(ctx context.Context) (Permission, error)
}

// PromptFunc asks the user for the permission. It reports whether it was granted.
type PromptFunc func(ctx context.Context) (bool, error)

// MemoryGate keeps the permission for the life of the process. Request on an
// undetermined permission runs the prompt; without a prompt nobody can
// answer and the request is denied. Set records an explicit user decision.
type MemoryGate struct {
	mu     sync.RWMutex
	state  Permission
	prompt PromptFunc
}

func NewMemoryGate(initial Permission, prompt PromptFunc) *MemoryGate {
	return &MemoryGate{state: initial, prompt: prompt}
}

func (g *MemoryGate) Status(context.Context) (Permission, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state, nil
}

func (g *MemoryGate) Request(ctx context.Context) (Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != PermissionUndetermined {
		return g.state, nil
	}
	if g.prompt == nil {
		return PermissionDenied, nil
	}
	granted, err := g.prompt(ctx)
	if err != nil {
		return PermissionUndetermined, err
	}
	if granted {
		g.state = PermissionGranted
	} else {
		g.state = PermissionDenied
	}
	return g.state, nil
}

// Set records a permission decision made outside a prompt.
func (g *MemoryGate) Set(p Permission) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = p
}
