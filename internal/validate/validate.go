// Package validate normalizes raw tool arguments against a ToolDefinition.
//
// Normalize is a pure function: no I/O, deterministic for identical inputs,
// and it never mutates the raw mapping it is given.
package validate

import (
	"reflect"

	"toolgate/internal/domain"
	"toolgate/internal/schema"
)

// Normalize checks raw against def and returns the normalized argument set.
//
// Per declared parameter, in order: a present value is type-checked against
// the declared kind (no lossy coercion) and, when an enumeration is declared,
// checked for membership; an absent required parameter fails; an absent
// optional parameter takes its default or is omitted. Any raw key not in the
// spec is rejected rather than silently dropped, so caller typos surface
// immediately.
func Normalize(def domain.ToolDefinition, raw domain.Args) (domain.Args, error) {
	normalized := make(domain.Args, len(def.Params))

	for _, p := range def.Params {
		value, present := raw[p.Name]
		if !present {
			if p.Required {
				return nil, domain.Faultf(domain.FaultMissingParameter,
					"missing required parameter %q", p.Name)
			}
			if p.Default != nil {
				coerced, err := domain.CoerceValue(p.Kind, p.Default)
				if err != nil {
					// Defaults are vetted at registration; reaching this is
					// a wiring defect.
					return nil, domain.Faultf(domain.FaultInternalConfiguration,
						"default for parameter %q does not satisfy its kind", p.Name)
				}
				normalized[p.Name] = coerced
			}
			continue
		}

		coerced, err := coerceParam(p, value)
		if err != nil {
			return nil, err
		}
		normalized[p.Name] = coerced
	}

	for key := range raw {
		if !declared(def.Params, key) {
			return nil, domain.Faultf(domain.FaultUnknownParameter,
				"unknown parameter %q", key)
		}
	}
	return normalized, nil
}

func coerceParam(p domain.ParameterSpec, value any) (any, error) {
	coerced, err := domain.CoerceValue(p.Kind, value)
	if err != nil {
		return nil, domain.Faultf(domain.FaultInvalidArguments,
			"parameter %q: %v", p.Name, err)
	}

	if p.Kind == domain.KindList && p.ItemKind != "" {
		items := coerced.([]any)
		out := make([]any, len(items))
		for i, item := range items {
			elem, err := domain.CoerceValue(p.ItemKind, item)
			if err != nil {
				return nil, domain.Faultf(domain.FaultInvalidArguments,
					"parameter %q[%d]: %v", p.Name, i, err)
			}
			out[i] = elem
		}
		coerced = out
	}

	if p.Kind == domain.KindObject && p.Schema != nil {
		if err := schema.ValidateObject(p.Schema, coerced.(map[string]any)); err != nil {
			return nil, domain.Faultf(domain.FaultInvalidArguments,
				"parameter %q: %v", p.Name, err)
		}
	}

	if len(p.Enum) > 0 && !enumMember(p, coerced) {
		return nil, domain.Faultf(domain.FaultInvalidArguments,
			"parameter %q: value %v is not one of the allowed values", p.Name, coerced)
	}
	return coerced, nil
}

// enumMember compares via reflect.DeepEqual so that a definition carrying an
// enum of uncomparable values cannot panic the validation pass.
func enumMember(p domain.ParameterSpec, value any) bool {
	for _, member := range p.Enum {
		canonical, err := domain.CoerceValue(p.Kind, member)
		if err != nil {
			continue
		}
		if reflect.DeepEqual(canonical, value) {
			return true
		}
	}
	return false
}

func declared(params []domain.ParameterSpec, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}
