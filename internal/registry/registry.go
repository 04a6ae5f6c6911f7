package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/internal/scanners/gosec"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

// ErrUnknownScanner is returned for names that are neither built in nor installed as a plugin.
var ErrUnknownScanner = errors.New("unknown scanner")

// Factory creates a fresh scanner instance for one launch.
type Factory func(logger hclog.Logger) shared.Scanner

// Registry maps scanner names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry holding every built-in scanner.
func Default() *Registry {
	r := New()
	r.Register(gosec.PluginName, func(logger hclog.Logger) shared.Scanner {
		return gosec.New(logger)
	})
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScanner, name)
	}
	return f, nil
}

// Names returns the registered scanner names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
