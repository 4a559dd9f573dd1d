// Package schema renders ParameterSpec lists as JSON Schema documents for
// catalog listings and validates object parameters against raw schemas.
package schema

import (
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	tekuri "github.com/santhosh-tekuri/jsonschema/v5"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"toolgate/internal/domain"
)

// Document builds the JSON Schema object describing a tool's input. Property
// order follows the ParameterSpec order so listings stay deterministic.
func Document(def domain.ToolDefinition) *invopop.Schema {
	props := orderedmap.New[string, *invopop.Schema]()
	required := make([]string, 0)
	for _, p := range def.Params {
		props.Set(p.Name, property(p))
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &invopop.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: invopop.FalseSchema,
	}
}

// DocumentJSON marshals Document's output.
func DocumentJSON(def domain.ToolDefinition) (json.RawMessage, error) {
	raw, err := json.Marshal(Document(def))
	if err != nil {
		return nil, fmt.Errorf("render schema for %q: %w", def.Name, err)
	}
	return raw, nil
}

func property(p domain.ParameterSpec) *invopop.Schema {
	s := &invopop.Schema{Description: p.Description}
	switch p.Kind {
	case domain.KindString:
		s.Type = "string"
	case domain.KindInteger:
		s.Type = "integer"
	case domain.KindBoolean:
		s.Type = "boolean"
	case domain.KindList:
		s.Type = "array"
		if p.ItemKind != "" {
			s.Items = property(domain.ParameterSpec{Kind: p.ItemKind})
		}
	case domain.KindObject:
		s.Type = "object"
	}
	if p.Default != nil {
		s.Default = p.Default
	}
	if len(p.Enum) > 0 {
		s.Enum = append([]any(nil), p.Enum...)
	}
	return s
}

// ValidateObject checks value against the raw JSON Schema carried by an
// object parameter. The schema was vetted at registration, so a compile
// failure here is a configuration defect, not caller error.
func ValidateObject(raw json.RawMessage, value map[string]any) error {
	compiled, err := tekuri.CompileString("param.schema.json", string(raw))
	if err != nil {
		return fmt.Errorf("invalid parameter schema: %w", err)
	}
	// tekuri validates the generic decoded form only.
	var generic any
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode object value: %w", err)
	}
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode object value: %w", err)
	}
	if err := compiled.Validate(generic); err != nil {
		return err
	}
	return nil
}
