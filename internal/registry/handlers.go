package registry

import (
	"errors"
	"fmt"

	"toolgate/internal/domain"
)

// ErrNoHandler is returned by Resolve for names without a bound handler.
var ErrNoHandler = errors.New("no handler bound")

// HandlerMap associates each tool name with its executable handler. It is
// the only place that couples the dispatch core to the leaf adapters.
type HandlerMap struct {
	handlers map[string]domain.Handler
}

// NewHandlerMap returns an empty handler map.
func NewHandlerMap() *HandlerMap {
	return &HandlerMap{handlers: make(map[string]domain.Handler)}
}

// Bind associates name with h. Binding nil or rebinding a name is an error.
func (m *HandlerMap) Bind(name string, h domain.Handler) error {
	if h == nil {
		return fmt.Errorf("handler for %q must not be nil", name)
	}
	if _, exists := m.handlers[name]; exists {
		return fmt.Errorf("handler for %q already bound", name)
	}
	m.handlers[name] = h
	return nil
}

// Resolve returns the handler for name or ErrNoHandler.
func (m *HandlerMap) Resolve(name string) (domain.Handler, error) {
	h, ok := m.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, name)
	}
	return h, nil
}

// Verify checks that every registered definition has exactly one handler and
// every handler has a definition. Called once at startup; a mismatch is a
// fatal configuration error, not something to surface at first call.
func (m *HandlerMap) Verify(reg *Registry) error {
	for _, def := range reg.List() {
		if _, ok := m.handlers[def.Name]; !ok {
			return fmt.Errorf("tool %q has no handler", def.Name)
		}
	}
	for name := range m.handlers {
		if _, err := reg.Lookup(name); err != nil {
			return fmt.Errorf("handler %q has no tool definition", name)
		}
	}
	return nil
}
