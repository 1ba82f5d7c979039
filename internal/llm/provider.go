// Package llm abstracts over hosted language model APIs. Callers build
// a Request, optionally attach a JSON schema, and get validated JSON
// back regardless of which provider serves it.
package llm

import (
	"context"
	"encoding/json"
)

// Provider is the seam the scoring layer programs against.
type Provider interface {
	// Generate runs one completion. With a Schema set the returned
	// Content is schema-validated JSON; without one it is the raw text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the configured model.
	ModelID() string
}

// Request is a single completion call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the turn history; grading calls send one user turn.
	Messages []Message

	// Schema, when set, makes the provider use its native structured
	// output mechanism and validates the result.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature in 0.0-1.0; zero means deterministic.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema the response must conform to. Name is
// kebab-case ("response-analysis") since some providers use it as an
// identifier on the wire.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the provider-neutral result.
type Response struct {
	// Content is validated JSON when the request carried a Schema,
	// otherwise the raw text.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the call.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
