package dispatch

import (
	"fmt"
	"sync"
)

// Catalog is the lookup table of every built-in capability. Registries
// draw from it by name.
type Catalog struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	order       []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{descriptors: make(map[string]Descriptor)}
}

// Add inserts d. The definition's function name and type default to the
// descriptor's name and "function".
func (c *Catalog) Add(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if d.Definition.Type == "" {
		d.Definition.Type = "function"
	}
	if d.Definition.Function.Name == "" {
		d.Definition.Function.Name = d.Name
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.descriptors[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCapability, d.Name)
	}
	c.descriptors[d.Name] = d
	c.order = append(c.order, d.Name)
	return nil
}

// MustAdd is Add that panics on error. Intended for package-level catalogs.
func (c *Catalog) MustAdd(d Descriptor) {
	if err := c.Add(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descriptors[name]
	return d, ok
}

// Names returns catalog names in insertion order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
