package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a Provider from settings.
type Factory func(Settings) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a provider factory under the given name.
// Called from init() in each provider module; panics on duplicates,
// which would indicate a build-time wiring mistake.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("provider: %q registered twice", name))
	}
	registry[name] = factory
}

// New constructs the provider registered under name.
func New(name string, settings Settings) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrNoProvider, name, Names())
	}
	return factory(settings)
}

// Names returns the sorted list of registered provider names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
