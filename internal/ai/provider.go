package ai

import (
	"context"
	"encoding/json"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// Reasoning holds the extracted reasoning trace for assistant messages
	// produced by flattened-prompt models.
	Reasoning string `json:"reasoning,omitempty"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-role result message back to the call.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolSpec describes a tool to the provider (JSON Schema parameters).
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Call is the assembled provider call. Exactly one of Prompt and Messages
// is populated: Prompt for flattened-prompt models, Messages (plus optional
// System) for structured chat models.
type Call struct {
	System   string
	Messages []Message
	Prompt   string
	Tools    []ToolSpec
}

type Provider interface {
	Chat(ctx context.Context, call Call) (Message, error)
}

// StreamProvider is an optional interface. Providers may implement streaming chat.
type StreamProvider interface {
	StreamChat(ctx context.Context, call Call) (<-chan StreamEvent, <-chan error)
}
