// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// ValidationError describes why an item was refused.
type ValidationError struct {
	Item   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("registry: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("registry: item %q: %s: %s", e.Item, e.Field, e.Reason)
}

// ErrEmpty is returned when no items are supplied.
var ErrEmpty = errors.New("registry: at least one item required")

// Registry is the immutable name -> ItemConfig map.
// Safe for concurrent reads; there are no writers after Build.
type Registry struct {
	items map[string]ItemConfig
	names []string
}

// Build validates and normalizes items.
// Any violation refuses the whole set.
func Build(items []ItemConfig) (*Registry, error) {
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	r := &Registry{
		items: make(map[string]ItemConfig, len(items)),
		names: make([]string, 0, len(items)),
	}

	for _, in := range items {
		ic, err := normalize(in)
		if err != nil {
			return nil, err
		}
		if _, dup := r.items[ic.Name]; dup {
			return nil, &ValidationError{Item: ic.Name, Field: "name", Reason: "duplicate"}
		}
		r.items[ic.Name] = ic
		r.names = append(r.names, ic.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the item named name.
func (r *Registry) Lookup(name string) (ItemConfig, bool) {
	if r == nil {
		return ItemConfig{}, false
	}
	ic, ok := r.items[name]
	return ic, ok
}

// Names lists item names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len is the number of items.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// Polled returns items with a positive poll interval, sorted by name.
func (r *Registry) Polled() []ItemConfig {
	var out []ItemConfig
	for _, n := range r.Names() {
		if ic := r.items[n]; ic.PollMs > 0 {
			out = append(out, ic)
		}
	}
	return out
}
