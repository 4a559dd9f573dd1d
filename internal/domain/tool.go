package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Kind enumerates the parameter types a tool may declare.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindList    Kind = "list"
	KindObject  Kind = "object"
)

// ParameterSpec describes one accepted parameter of a tool.
//
// A required parameter carries no default. Defaults and enum members must
// satisfy the declared Kind; Check enforces both at registration time.
type ParameterSpec struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`

	// Default is substituted when the parameter is absent and not required.
	// Nil means the key is omitted entirely.
	Default any `json:"default,omitempty"`

	// Enum, when non-empty, restricts accepted values to its members.
	// Only scalar kinds may declare one.
	Enum []any `json:"enum,omitempty"`

	// ItemKind constrains elements of a list parameter. Empty accepts any
	// element type.
	ItemKind Kind `json:"itemKind,omitempty"`

	// Schema optionally carries a raw JSON Schema for object parameters.
	// Scalar kinds never set it.
	Schema json.RawMessage `json:"schema,omitempty"`
}

// Check validates the spec's own invariants.
func (p ParameterSpec) Check() error {
	if p.Name == "" {
		return fmt.Errorf("parameter spec has empty name")
	}
	switch p.Kind {
	case KindString, KindInteger, KindBoolean, KindList, KindObject:
	default:
		return fmt.Errorf("parameter %q: unknown kind %q", p.Name, p.Kind)
	}
	if p.Required && p.Default != nil {
		return fmt.Errorf("parameter %q: required parameters carry no default", p.Name)
	}
	if p.Default != nil {
		if _, err := CoerceValue(p.Kind, p.Default); err != nil {
			return fmt.Errorf("parameter %q: default does not satisfy kind %s: %w", p.Name, p.Kind, err)
		}
	}
	if len(p.Enum) > 0 {
		switch p.Kind {
		case KindString, KindInteger, KindBoolean:
		default:
			return fmt.Errorf("parameter %q: enumerations are only valid on scalar kinds, not %s", p.Name, p.Kind)
		}
		for _, member := range p.Enum {
			if _, err := CoerceValue(p.Kind, member); err != nil {
				return fmt.Errorf("parameter %q: enum member does not satisfy kind %s: %w", p.Name, p.Kind, err)
			}
		}
	}
	if p.Schema != nil && p.Kind != KindObject {
		return fmt.Errorf("parameter %q: schema is only valid on object parameters", p.Name)
	}
	return nil
}

// CoerceValue checks v against kind and returns the canonical representation
// (integers as int64). Only structurally matching types are accepted; numeric
// strings and truncating conversions are rejected.
func CoerceValue(kind Kind, v any) (any, error) {
	switch kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case KindInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
				return nil, fmt.Errorf("expected integer, got non-integral number %v", n)
			}
			return int64(n), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case KindList:
		l, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		return l, nil
	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", v)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

// ToolDefinition is the immutable identity and schema of one tool. Created
// once at startup and owned by the registry for the process lifetime.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Params      []ParameterSpec `json:"parameterSpecs"`
}

// Check validates the definition and every parameter spec.
func (d ToolDefinition) Check() error {
	if d.Name == "" {
		return fmt.Errorf("tool definition has empty name")
	}
	seen := make(map[string]struct{}, len(d.Params))
	for _, p := range d.Params {
		if err := p.Check(); err != nil {
			return fmt.Errorf("tool %q: %w", d.Name, err)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("tool %q: duplicate parameter %q", d.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Args is a raw or normalized argument mapping.
type Args map[string]any

// Handler is the leaf implementation performing a tool's real work, usually
// by calling an external service. It receives normalized arguments and
// returns a structured payload or an error; it never sees unvalidated input.
type Handler interface {
	Execute(ctx context.Context, args Args) (any, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, args Args) (any, error) {
	return f(ctx, args)
}
