// Package registry holds the tool catalog and the handler map. Both are
// populated single-threaded at startup and read-only afterwards, so they are
// safe for concurrent lookups without locking.
package registry

import (
	"errors"
	"fmt"

	"toolgate/internal/domain"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
var ErrDuplicateTool = errors.New("tool already registered")

// ErrToolNotFound is returned by Lookup for unknown tool names.
var ErrToolNotFound = errors.New("unknown tool")

// Registry owns the ToolDefinitions for the process lifetime. List returns
// definitions in insertion order, which is the catalog order callers see.
type Registry struct {
	defs  map[string]domain.ToolDefinition
	order []string
}

// New returns an empty, ready-to-use registry.
func New() *Registry {
	return &Registry{defs: make(map[string]domain.ToolDefinition)}
}

// Register inserts a definition. The definition's own invariants are checked
// first; a name collision fails with ErrDuplicateTool.
func (r *Registry) Register(def domain.ToolDefinition) error {
	if err := def.Check(); err != nil {
		return err
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool %q: %w", def.Name, ErrDuplicateTool)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup returns the definition for name or ErrToolNotFound.
func (r *Registry) Lookup(name string) (domain.ToolDefinition, error) {
	def, ok := r.defs[name]
	if !ok {
		return domain.ToolDefinition{}, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return def, nil
}

// List returns all definitions in insertion order.
func (r *Registry) List() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
