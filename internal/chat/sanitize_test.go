package chat

import (
	"encoding/json"
	"testing"

	"github.com/reldane/chatrelay/internal/ai"
)

func TestSanitizeResponse_KeepsAssistantTurnsOnly(t *testing.T) {
	in := []ai.Message{
		{Role: ai.RoleAssistant, Content: "checking the weather", ToolCalls: []ai.ToolCall{
			{ID: "c1", Name: "getWeather", Arguments: json.RawMessage(`{}`)},
		}},
		{Role: ai.RoleTool, ToolCallID: "c1", Content: `{"temp":20}`},
		{Role: ai.RoleAssistant, Content: "It is 20 degrees.  \n"},
	}

	out := SanitizeResponse(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(out))
	}
	for _, m := range out {
		if m.Role != ai.RoleAssistant {
			t.Fatalf("non-assistant turn survived: %q", m.Role)
		}
		if len(m.ToolCalls) != 0 || m.ToolCallID != "" {
			t.Fatalf("tool plumbing survived: %+v", m)
		}
	}
	if out[1].Content != "It is 20 degrees." {
		t.Fatalf("trailing whitespace kept: %q", out[1].Content)
	}
}

func TestSanitizeResponse_DropsEmptyTurns(t *testing.T) {
	in := []ai.Message{
		{Role: ai.RoleAssistant, Content: "  \n\t"},
		{Role: ai.RoleAssistant, Content: "", Reasoning: "thought about it"},
	}
	out := SanitizeResponse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(out))
	}
	if out[0].Reasoning != "thought about it" {
		t.Fatalf("reasoning lost: %+v", out[0])
	}
}
