// In file: internal/tools/types.go

// Package tools holds the gateway's tool registry. Each tool describes itself
// with a JSON Schema definition the assistant can read, and executes against
// the raw JSON arguments of one request item.
package tools

// ToolTypeFunction is the only tool type the gateway serves.
const ToolTypeFunction = "function"

// Tool is the definition returned by OPTIONS /tools.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function names a callable tool and describes its parameters.
type Function struct {
	// Name is the functionName callers dispatch on, e.g. "IPAddressLookUp".
	Name string `json:"name"`
	// Description is what the assistant reads to decide when to call the tool.
	Description string `json:"description"`
	// Parameters is always an "object" schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema used by tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// NewFunctionTool builds a function Tool.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
