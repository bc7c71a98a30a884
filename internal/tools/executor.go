// In file: internal/tools/executor.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquataze/tool-gateway/internal/api"
)

// ToolExecutor is implemented by every tool the gateway can dispatch to.
type ToolExecutor interface {
	// Definition returns the tool's name and parameter schema.
	Definition() Tool

	// Execute runs the tool for one request item. args is the item's JSON
	// object, including the functionName key when it came through the
	// dispatcher. The result is marshaled as the item's data.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// decodeArgs unmarshals a tool's JSON arguments into v.
func decodeArgs(args json.RawMessage, v any, tool string) error {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w: %w", tool, api.ErrInvalidArgument, err)
	}
	return nil
}
