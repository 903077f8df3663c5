package ai

type EventType string

const (
	EventText         EventType = "text-delta"
	EventReasoning    EventType = "reasoning-delta"
	EventToolCall     EventType = "tool-call"
	EventToolResult   EventType = "tool-result"
	EventToolProgress EventType = "tool-progress"
)

// StreamEvent is one incremental unit of relay output. Text carries the
// payload for delta, progress and result events; ToolCall is set on
// tool-call and tool-result events.
type StreamEvent struct {
	Type     EventType `json:"type"`
	Text     string    `json:"text,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}
