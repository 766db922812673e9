package llm

import (
	"context"
	"encoding/json"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool is a function the model may call with JSON arguments matching Parameters.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

type JSONSchema struct {
	Name   string
	Schema map[string]any
}

type Request struct {
	System   string
	Messages []Message
	// Tools and ForceTool are honored only when the client reports SupportsTools.
	Tools     []Tool
	ForceTool string
	// Schema requests structured output; ignored by clients without native support.
	Schema          *JSONSchema
	MaxOutputTokens int
}

type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is the provider-agnostic completion interface used by services.
type Client interface {
	Provider() string
	SupportsTools() bool
	Complete(ctx context.Context, req Request) (Response, error)
}

var ErrEmptyResponse = errors.New("llm: empty response")

// FindToolCall returns the first call to the named tool, if any.
func (r Response) FindToolCall(name string) (ToolCall, bool) {
	for _, tc := range r.ToolCalls {
		if tc.Name == name {
			return tc, true
		}
	}
	return ToolCall{}, false
}
