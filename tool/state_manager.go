package tool

import (
	"fmt"
)

// StateManagerTool provides operations over the shared state bag exposed
// through the tool Context.
//
// It demonstrates how tools can use the Context for cross-invocation state
// and incremental streaming output, and doubles as a built-in utility for
// pipelines where one tool's output feeds a later tool's input.
type StateManagerTool struct {
	name        string
	description string
}

// NewStateManagerTool creates a new state management tool.
//
// Supported operations:
//   - get_state:  read a value by key
//   - set_state:  write a value under a key
//   - list_state: enumerate the keys currently stored
//   - stream:     emit text through the configured stream writer
func NewStateManagerTool() *StateManagerTool {
	return &StateManagerTool{
		name: "state_manager",
		description: "Manages shared execution state. Supports operations: " +
			"get_state, set_state, list_state, stream.",
	}
}

// Name returns the tool identifier.
func (t *StateManagerTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *StateManagerTool) Description() string {
	return t.description
}

// Parameters returns the JSON schema for the tool's arguments.
func (t *StateManagerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"enum":        []string{"get_state", "set_state", "list_state", "stream"},
			},
			"key": map[string]any{
				"type":        "string",
				"description": "State key (required for get_state and set_state)",
			},
			"value": map[string]any{
				"description": "Value to store (required for set_state)",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Text to stream (required for stream)",
			},
		},
		"required": []string{"operation"},
	}
}

// Call dispatches on the operation argument.
func (t *StateManagerTool) Call(toolCtx *Context, args map[string]any) (any, error) {
	operation, _ := args["operation"].(string)

	switch operation {
	case "get_state":
		key, ok := args["key"].(string)
		if !ok || key == "" {
			return nil, NewToolError(t.name, "key is required for get_state", CodeValidation)
		}
		value, exists := toolCtx.GetState(key)
		return map[string]any{"key": key, "value": value, "exists": exists}, nil

	case "set_state":
		key, ok := args["key"].(string)
		if !ok || key == "" {
			return nil, NewToolError(t.name, "key is required for set_state", CodeValidation)
		}
		value := args["value"]
		toolCtx.SetState(key, value)
		return map[string]any{"key": key, "value": value}, nil

	case "list_state":
		return map[string]any{"keys": toolCtx.StateKeys()}, nil

	case "stream":
		text, ok := args["text"].(string)
		if !ok {
			return nil, NewToolError(t.name, "text is required for stream", CodeValidation)
		}
		if err := toolCtx.Stream(text); err != nil {
			return nil, NewToolError(t.name, err.Error(), CodeExecution)
		}
		return map[string]any{"streamed": len(text)}, nil

	default:
		return nil, NewToolError(t.name, fmt.Sprintf("unsupported operation: %s", operation), CodeValidation)
	}
}
