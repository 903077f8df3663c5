package chat

import (
	"strings"

	"github.com/reldane/chatrelay/internal/ai"
)

const regularPrompt = "You are a friendly assistant! Keep your responses concise and helpful."

const artifactsPrompt = "You can create and update documents for writing activities with the " +
	"createDocument and updateDocument tools. Use createDocument for substantial content such " +
	"as essays or code, and updateDocument to apply requested changes to an existing document. " +
	"Wait for user feedback before updating a document you just created."

// AssemblePrompt converts a transcript plus a resolved model config into
// the provider call shape. Flattened models get the whole transcript as a
// single labelled prompt with no system prompt and no tools; structured
// models get role/content pairs, a system prompt, and tools only on the
// largest tier.
func AssemblePrompt(transcript []ai.Message, cfg ai.ChatModelConfig, toolSpecs []ai.ToolSpec) (ai.Call, error) {
	if len(transcript) == 0 || transcript[len(transcript)-1].Role != ai.RoleUser {
		return ai.Call{}, ErrNoUserMessage
	}

	if cfg.Kind == ai.KindFlattened {
		lines := make([]string, 0, len(transcript))
		for _, m := range transcript {
			label := "User:"
			if m.Role == ai.RoleAssistant {
				label = "Assistant:"
			}
			lines = append(lines, label+" "+m.Content)
		}
		return ai.Call{Prompt: strings.Join(lines, "\n")}, nil
	}

	call := ai.Call{
		System:   systemPrompt(cfg),
		Messages: transcript,
	}
	if cfg.Tier == ai.TierLarge {
		call.Tools = toolSpecs
	}
	return call, nil
}

func systemPrompt(cfg ai.ChatModelConfig) string {
	if cfg.Tier == ai.TierLarge {
		return regularPrompt + "\n\n" + artifactsPrompt
	}
	return regularPrompt
}

const titleSystemPrompt = "Generate a short title based on the first message a user begins a " +
	"conversation with. Keep it under 80 characters. Summarize the message; do not use quotes or colons."

// TitleCall builds the title-model call used by the worker.
func TitleCall(userMessage string) ai.Call {
	return ai.Call{
		System:   titleSystemPrompt,
		Messages: []ai.Message{{Role: ai.RoleUser, Content: userMessage}},
	}
}
