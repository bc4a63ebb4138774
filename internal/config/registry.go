package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mandika-app/mandika/pkg/translator"
)

// ErrBackendNotRegistered is returned by CreateBackend when no factory has
// been registered under the requested backend name.
var ErrBackendNotRegistered = errors.New("config: translation backend not registered")

// BackendFactory builds a translation backend from its config entry.
type BackendFactory func(BackendEntry) (translator.Backend, error)

// Registry maps translation backend names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]BackendFactory
}

// NewRegistry returns a [Registry] with no backends registered.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]BackendFactory)}
}

// RegisterBackend registers a translation backend factory under name.
// Registering the same name twice keeps the later factory.
func (r *Registry) RegisterBackend(name string, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = factory
}

// CreateBackend instantiates a translation backend using the factory
// registered under entry.Name. Returns [ErrBackendNotRegistered] if no
// factory has been registered for that name.
func (r *Registry) CreateBackend(entry BackendEntry) (translator.Backend, error) {
	r.mu.RLock()
	factory, ok := r.backends[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotRegistered, entry.Name, r.BackendNames())
	}
	return factory(entry)
}

// BackendNames returns the registered backend names, sorted.
func (r *Registry) BackendNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
