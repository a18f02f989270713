// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types or plain values, never SDK types
//   - Keep interfaces small and focused
package ports

import (
	"context"
)

// Prompt is one schema-constrained generation request.
type Prompt struct {
	// Model names the hosted model, e.g. "gpt-5-mini".
	Model string

	// Instruction is the fixed system instruction.
	Instruction string

	// Input is the single user message.
	Input string

	// SchemaName and Schema describe the JSON document the model must return.
	SchemaName string
	Schema     map[string]any

	// Strict asks the service to enforce the schema exactly.
	Strict bool
}

// ModelClient sends a prompt to a hosted text-generation service.
//
// Generate returns the model's output text, which should be a JSON document
// conforming to Prompt.Schema. The text is returned unparsed; callers decide
// how to treat non-conforming output. Transport and service failures are
// returned as errors.
type ModelClient interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
