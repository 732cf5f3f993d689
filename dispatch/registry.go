package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonwraymond/toolhub/observe"
)

// PluginsPlaceholder is replaced in the meta capability's description with
// the comma-joined names of every other registered capability.
const PluginsPlaceholder = "[plugins]"

// Registry is the set of capabilities available to one session.
//
// Contract:
//   - Concurrency: safe for concurrent use. Register calls must complete
//     before DescribeAll, which seals the registry.
//   - Ordering: registration order is preserved. Registering a name again
//     replaces its descriptor in place.
type Registry struct {
	catalog *Catalog
	logger  observe.Logger

	mu      sync.RWMutex
	entries map[string]Descriptor
	order   []string
	sealed  bool
}

// NewRegistry creates an empty registry backed by catalog.
func NewRegistry(catalog *Catalog, logger observe.Logger) *Registry {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Registry{
		catalog: catalog,
		logger:  logger,
		entries: make(map[string]Descriptor),
	}
}

// Register adds the catalog descriptor for name.
func (r *Registry) Register(name string) error {
	d, ok := r.catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return r.RegisterDescriptor(d)
}

// RegisterDescriptor adds d directly, bypassing the catalog.
func (r *Registry) RegisterDescriptor(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if d.Definition.Type == "" {
		d.Definition.Type = "function"
	}
	if d.Definition.Function.Name == "" {
		d.Definition.Function.Name = d.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, d.Name)
	}
	if _, exists := r.entries[d.Name]; exists {
		r.logger.Debug(context.Background(), "capability re-registered", observe.F("capability", d.Name))
	} else {
		r.order = append(r.order, d.Name)
	}
	r.entries[d.Name] = d
	return nil
}

// Lookup returns the registered descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[name]
	return d, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Sealed reports whether DescribeAll has run.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// DescribeAll seals the registry and returns every definition in
// registration order. A meta capability's description has
// PluginsPlaceholder replaced by the other registered names. The
// substitution always starts from the stored description, so repeated
// calls return identical output.
func (r *Registry) DescribeAll() []Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		d := r.entries[name]
		def := d.Definition
		if d.Meta && strings.Contains(def.Function.Description, PluginsPlaceholder) {
			def.Function.Description = strings.ReplaceAll(
				def.Function.Description,
				PluginsPlaceholder,
				strings.Join(r.othersLocked(name), ","),
			)
		}
		defs = append(defs, def)
	}
	return defs
}

func (r *Registry) othersLocked(exclude string) []string {
	out := make([]string, 0, len(r.order))
	for _, n := range r.order {
		if n != exclude {
			out = append(out, n)
		}
	}
	return out
}

// Assemble returns configured followed by every forced name it lacks, in
// forced order. Each forced addition is logged.
func Assemble(ctx context.Context, configured, forced []string, logger observe.Logger) []string {
	if logger == nil {
		logger = observe.NopLogger()
	}

	present := make(map[string]struct{}, len(configured)+len(forced))
	out := make([]string, 0, len(configured)+len(forced))
	for _, name := range configured {
		present[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range forced {
		if _, ok := present[name]; ok {
			continue
		}
		present[name] = struct{}{}
		out = append(out, name)
		logger.Info(ctx, "forced capability added", observe.F("capability", name))
	}
	return out
}

// BuildConfig selects which catalog capabilities a session gets.
type BuildConfig struct {
	// AlwaysOn names are registered first for every session.
	AlwaysOn []string
	// Functions are the per-session configured names.
	Functions []string
	// Forced names are appended to Functions when missing.
	Forced []string
	// Strict fails the build on an unknown name instead of logging it.
	Strict bool
}

// Build registers AlwaysOn and the assembled function list from catalog,
// then seals the registry with DescribeAll.
func Build(ctx context.Context, catalog *Catalog, cfg BuildConfig, logger observe.Logger) (*Registry, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}
	r := NewRegistry(catalog, logger)

	names := append(append([]string{}, cfg.AlwaysOn...), Assemble(ctx, cfg.Functions, cfg.Forced, logger)...)
	for _, name := range names {
		if err := r.Register(name); err != nil {
			if cfg.Strict {
				return nil, err
			}
			logger.Warn(ctx, "skipping unknown capability", observe.F("capability", name), observe.Err(err))
		}
	}

	r.DescribeAll()
	logger.Info(ctx, "capabilities registered", observe.F("capabilities", r.Names()))
	return r, nil
}
