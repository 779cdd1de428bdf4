// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/bowtie/render"
)

// Factory creates a new backend instance. It returns nil when the backend
// is unusable in the current environment.
type Factory func() render.Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendSoftware, BackendNull}
)

func init() {
	Register(BackendNull, func() render.Backend {
		return render.NewNullBackend()
	})
}

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered or unavailable.
func Get(name string) render.Backend {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Open returns a backend instance by name, or an error wrapping
// ErrBackendNotAvailable. The names "" and "auto" select Default.
func Open(name string) (render.Backend, error) {
	var b render.Backend
	if name == "" || name == "auto" {
		b = Default()
	} else {
		b = Get(name)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	render.Logger().Info("backend: selected", "name", b.Name())
	return b, nil
}

// Default returns the best available backend based on priority.
// Priority order: wgpu > software > null.
// Returns nil if no backends are available.
func Default() render.Backend {
	registryMu.RLock()
	factories := maps.Clone(backends)
	registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := factories[name]; ok {
			if b := factory(); b != nil {
				return b
			}
		}
		delete(factories, name)
	}

	// Fallback: first available in name order.
	for _, name := range slices.Sorted(maps.Keys(factories)) {
		if b := factories[name](); b != nil {
			return b
		}
	}
	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() render.Backend {
	b := Default()
	if b == nil {
		panic(ErrBackendNotAvailable)
	}
	return b
}
