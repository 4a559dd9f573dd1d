// Package tools contains the leaf adapters behind the tool catalog. Each
// adapter wraps one external system and exposes its operations as
// (definition, handler) pairs; the dispatch core knows nothing beyond the
// Handler capability.
package tools

import (
	"toolgate/internal/domain"
	"toolgate/internal/registry"
)

// Tool pairs a definition with its handler.
type Tool struct {
	Def     domain.ToolDefinition
	Handler domain.Handler
}

// Install registers every tool into the registry and handler map, in the
// order given. Any failure here is a startup-time configuration error.
func Install(reg *registry.Registry, handlers *registry.HandlerMap, groups ...[]Tool) error {
	for _, group := range groups {
		for _, t := range group {
			if err := reg.Register(t.Def); err != nil {
				return err
			}
			if err := handlers.Bind(t.Def.Name, t.Handler); err != nil {
				return err
			}
		}
	}
	return nil
}

// Argument accessors. Arguments reach handlers already validated and
// normalized, so missing optional keys yield zero values and present keys
// always carry the canonical type for their kind.

func argString(args domain.Args, name string) string {
	s, _ := args[name].(string)
	return s
}

func argInt(args domain.Args, name string) int64 {
	n, _ := args[name].(int64)
	return n
}

func argBool(args domain.Args, name string) bool {
	b, _ := args[name].(bool)
	return b
}

func argList(args domain.Args, name string) []any {
	l, _ := args[name].([]any)
	return l
}

func argObject(args domain.Args, name string) map[string]any {
	m, _ := args[name].(map[string]any)
	return m
}

func argPresent(args domain.Args, name string) bool {
	_, ok := args[name]
	return ok
}
