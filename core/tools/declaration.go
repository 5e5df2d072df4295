package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Declaration is the capability metadata advertised to the remote model as
// part of session setup.
type Declaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Capability is a named unit of tool functionality invocable by the remote
// model. Execute receives the arguments exactly as they arrived on the wire.
type Capability interface {
	Declaration() Declaration
	Execute(ctx context.Context, args map[string]any) (any, error)
}

type funcCapability struct {
	declaration Declaration
	execute     func(ctx context.Context, args map[string]any) (any, error)
}

func (c funcCapability) Declaration() Declaration { return c.declaration }

func (c funcCapability) Execute(ctx context.Context, args map[string]any) (any, error) {
	return c.execute(ctx, args)
}

// NewCapability adapts a function into a Capability. The parameter schema is
// reflected from params, which should be a struct value (or pointer) whose
// fields describe the arguments; pass nil for a parameterless tool.
func NewCapability(name, description string, params any, execute func(ctx context.Context, args map[string]any) (any, error)) Capability {
	var schema *jsonschema.Schema
	if params != nil {
		reflector := jsonschema.Reflector{DoNotReference: true}
		schema = reflector.Reflect(params)
		// The reflected root carries schema metadata the wire format has no
		// use for.
		schema.Version = ""
	}

	return funcCapability{
		declaration: Declaration{Name: name, Description: description, Parameters: schema},
		execute:     execute,
	}
}
