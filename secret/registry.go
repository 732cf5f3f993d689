package secret

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory builds a Provider from its configuration section.
type ProviderFactory func(cfg map[string]string) (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns a registry holding the built-in env and file
// providers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]ProviderFactory)}
	_ = r.Register("env", func(map[string]string) (Provider, error) { return EnvProvider{}, nil })
	_ = r.Register("file", func(cfg map[string]string) (Provider, error) {
		dir := cfg["dir"]
		if dir == "" {
			return nil, fmt.Errorf("secret: file provider needs a dir")
		}
		return FileProvider{Dir: dir}, nil
	})
	return r
}

// Register adds factory under name.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return fmt.Errorf("secret: invalid provider registration %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named provider.
func (r *Registry) Create(name string, cfg map[string]string) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return factory(cfg)
}

// Names returns registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
