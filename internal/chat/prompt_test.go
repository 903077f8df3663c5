package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/reldane/chatrelay/internal/ai"
)

var testSpecs = []ai.ToolSpec{
	{Name: "getWeather", Parameters: json.RawMessage(`{}`)},
}

func TestAssemblePrompt_RequiresTrailingUserMessage(t *testing.T) {
	cfg := ai.ChatModelConfig{Kind: ai.KindStructured, Tier: ai.TierSmall}

	if _, err := AssemblePrompt(nil, cfg, nil); !errors.Is(err, ErrNoUserMessage) {
		t.Fatalf("empty transcript: got %v", err)
	}

	transcript := []ai.Message{
		{Role: ai.RoleUser, Content: "hi"},
		{Role: ai.RoleAssistant, Content: "hello"},
	}
	if _, err := AssemblePrompt(transcript, cfg, nil); !errors.Is(err, ErrNoUserMessage) {
		t.Fatalf("assistant-last transcript: got %v", err)
	}
}

func TestAssemblePrompt_FlattenedModel(t *testing.T) {
	cfg := ai.ChatModelConfig{Kind: ai.KindFlattened, Tier: ai.TierSmall}
	transcript := []ai.Message{
		{Role: ai.RoleUser, Content: "what is 2+2"},
		{Role: ai.RoleAssistant, Content: "4"},
		{Role: ai.RoleUser, Content: "and 3+3"},
	}

	call, err := AssemblePrompt(transcript, cfg, testSpecs)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := "User: what is 2+2\nAssistant: 4\nUser: and 3+3"
	if call.Prompt != want {
		t.Fatalf("prompt = %q, want %q", call.Prompt, want)
	}
	if call.System != "" {
		t.Fatalf("flattened call must not carry a system prompt, got %q", call.System)
	}
	if len(call.Tools) != 0 {
		t.Fatalf("flattened call must not carry tools")
	}
	if len(call.Messages) != 0 {
		t.Fatalf("flattened call must not carry structured messages")
	}
}

func TestAssemblePrompt_StructuredSmallTier(t *testing.T) {
	cfg := ai.ChatModelConfig{Kind: ai.KindStructured, Tier: ai.TierSmall}
	transcript := []ai.Message{{Role: ai.RoleUser, Content: "hi"}}

	call, err := AssemblePrompt(transcript, cfg, testSpecs)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if call.System == "" {
		t.Fatalf("expected a system prompt")
	}
	if strings.Contains(call.System, "createDocument") {
		t.Fatalf("small tier must not get the artifacts prompt")
	}
	if len(call.Tools) != 0 {
		t.Fatalf("small tier must not get tools")
	}
	if len(call.Messages) != 1 {
		t.Fatalf("messages = %+v", call.Messages)
	}
}

func TestAssemblePrompt_StructuredLargeTierGetsTools(t *testing.T) {
	cfg := ai.ChatModelConfig{Kind: ai.KindStructured, Tier: ai.TierLarge}
	transcript := []ai.Message{{Role: ai.RoleUser, Content: "write an essay"}}

	call, err := AssemblePrompt(transcript, cfg, testSpecs)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(call.System, "createDocument") {
		t.Fatalf("large tier should get the artifacts prompt, got %q", call.System)
	}
	if len(call.Tools) != 1 || call.Tools[0].Name != "getWeather" {
		t.Fatalf("tools = %+v", call.Tools)
	}
}

func TestTitleCall(t *testing.T) {
	call := TitleCall("explain quicksort")
	if call.System == "" {
		t.Fatalf("expected a system prompt")
	}
	if len(call.Messages) != 1 || call.Messages[0].Role != ai.RoleUser {
		t.Fatalf("messages = %+v", call.Messages)
	}
}
