package schema

import (
	"encoding/json"

	"toolgate/internal/domain"
)

// ToolListing is one catalog entry as both transports expose it: the
// ParameterSpec list plus its JSON Schema rendering (the inputSchema field
// MCP clients expect).
type ToolListing struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	ParameterSpecs []domain.ParameterSpec `json:"parameterSpecs"`
	InputSchema    json.RawMessage        `json:"inputSchema"`
}

// Catalog renders the full listing in the order defs were registered.
func Catalog(defs []domain.ToolDefinition) ([]ToolListing, error) {
	out := make([]ToolListing, 0, len(defs))
	for _, def := range defs {
		raw, err := DocumentJSON(def)
		if err != nil {
			return nil, err
		}
		params := def.Params
		if params == nil {
			params = []domain.ParameterSpec{}
		}
		out = append(out, ToolListing{
			Name:           def.Name,
			Description:    def.Description,
			ParameterSpecs: params,
			InputSchema:    raw,
		})
	}
	return out, nil
}
