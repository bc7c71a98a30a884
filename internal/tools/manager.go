// In file: internal/tools/manager.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aquataze/tool-gateway/internal/api"
)

// ToolManager holds a registry of all available tools. Tools are registered
// once at startup; lookups afterwards are read-only.
type ToolManager struct {
	tools map[string]ToolExecutor
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a new tool to the manager's registry.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.tools[name] = tool
}

// GetDefinitions returns every registered definition, sorted by name.
func (tm *ToolManager) GetDefinitions() []Tool {
	defs := make([]Tool, 0, len(tm.tools))
	for _, tool := range tm.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// Lookup returns the tool registered under name.
func (tm *ToolManager) Lookup(name string) (ToolExecutor, error) {
	if name == "" {
		return nil, fmt.Errorf("functionName is required: %w", api.ErrInvalidArgument)
	}
	tool, ok := tm.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool '%s' not found: %w", name, api.ErrToolNotFound)
	}
	return tool, nil
}

// Execute runs a tool by name with the given arguments.
func (tm *ToolManager) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, err := tm.Lookup(name)
	if err != nil {
		return nil, err
	}
	return tool.Execute(ctx, args)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}
