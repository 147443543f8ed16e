// Package tool implements the tool calling subsystem that lets callers expose
// structured capabilities (APIs, computations, side‑effects) with schema
// validated arguments, consistent error handling and rich metadata for LLM guidance.
package tool

import (
	"fmt"

	"github.com/hupe1980/toolmesh/internal/util"
)

// Tool defines the interface for invocable capabilities.
//
// Tools are registered with a Registry and executed through an Executor,
// allowing callers (typically an agent loop) to perform actions beyond text
// generation such as API calls, calculations, database queries, or any other
// programmatic operations.
//
// All tools receive a *Context at invocation time giving access to the
// invocation identifier, logger, shared state and streaming output.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
//   - Follow consistent naming conventions
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// This schema is used for parameter validation and LLM function calling.
	Parameters() map[string]interface{}

	// Call executes the tool with structured arguments and an invocation Context.
	// Arguments are parsed from JSON and validated against the tool's schema.
	Call(toolCtx *Context, args map[string]interface{}) (interface{}, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError for uniform downstream handling.
const (
	// CodeValidation signals a schema / argument mismatch.
	CodeValidation = "VALIDATION_ERROR"
	// CodeExecution signals that the underlying implementation returned an error.
	CodeExecution = "EXECUTION_ERROR"
	// CodeTimeout signals that an invocation attempt exceeded its timeout window.
	CodeTimeout = "TIMEOUT_ERROR"
	// CodeNotFound signals that the requested tool is absent from the registry.
	CodeNotFound = "NOT_FOUND"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
