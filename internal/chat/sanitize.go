package chat

import (
	"strings"

	"github.com/reldane/chatrelay/internal/ai"
)

// SanitizeResponse prepares provider output for durable storage: only
// assistant turns are kept, internal tool plumbing (tool calls, tool
// results) is stripped, and turns with neither content nor reasoning are
// dropped.
func SanitizeResponse(msgs []ai.Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != ai.RoleAssistant {
			continue
		}
		content := strings.TrimRight(m.Content, " \n\t")
		reasoning := strings.TrimSpace(m.Reasoning)
		if content == "" && reasoning == "" {
			continue
		}
		out = append(out, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   content,
			Reasoning: reasoning,
		})
	}
	return out
}
