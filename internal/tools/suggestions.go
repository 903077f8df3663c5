package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reldane/chatrelay/internal/ai"
)

const requestSuggestionsSystem = "You are a writing assistant. Given a document, suggest improvements. " +
	"Respond with a JSON array of objects with fields originalText, suggestedText and description. " +
	"Provide at most five suggestions and output only the JSON."

// RequestSuggestions asks a model for improvement suggestions on a document
// and stores them for later review.
type RequestSuggestions struct {
	store     Store
	suggester ai.Provider
}

func NewRequestSuggestions(store Store, suggester ai.Provider) *RequestSuggestions {
	return &RequestSuggestions{store: store, suggester: suggester}
}

func (t *RequestSuggestions) Spec() ai.ToolSpec {
	return ai.ToolSpec{
		Name:        "requestSuggestions",
		Description: "Request writing suggestions for an existing document",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"documentId": {"type": "string"}
			},
			"required": ["documentId"]
		}`),
	}
}

type requestSuggestionsArgs struct {
	DocumentID string `json:"documentId"`
}

type suggestionItem struct {
	OriginalText  string `json:"originalText"`
	SuggestedText string `json:"suggestedText"`
	Description   string `json:"description"`
}

func (t *RequestSuggestions) Invoke(ctx context.Context, args json.RawMessage, tc Context) (string, error) {
	var in requestSuggestionsArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("requestSuggestions: bad arguments: %w", err)
	}

	doc, err := t.store.GetDocumentByID(ctx, in.DocumentID)
	if err != nil {
		return "", err
	}
	if doc.UserID != tc.UserID {
		return "", ErrNotFound
	}

	msg, err := t.suggester.Chat(ctx, ai.Call{
		System:   requestSuggestionsSystem,
		Messages: []ai.Message{{Role: ai.RoleUser, Content: doc.Content}},
	})
	if err != nil {
		return "", err
	}

	items := parseSuggestions(msg.Content)
	rows := make([]*Suggestion, 0, len(items))
	for _, it := range items {
		s := &Suggestion{
			SuggestionID:  uuid.NewString(),
			DocumentID:    doc.DocumentID,
			UserID:        tc.UserID,
			OriginalText:  it.OriginalText,
			SuggestedText: it.SuggestedText,
			Description:   it.Description,
		}
		rows = append(rows, s)
		if tc.Emit != nil {
			tc.Emit(ai.StreamEvent{Type: ai.EventToolProgress, Text: it.SuggestedText})
		}
	}
	if err := t.store.SaveSuggestions(ctx, rows); err != nil {
		return "", err
	}

	return toolResultJSON(map[string]any{
		"id":      doc.DocumentID,
		"title":   doc.Title,
		"message": "Suggestions have been added to the document.",
	}), nil
}

// parseSuggestions accepts either the requested JSON array or, as a
// fallback, one suggestion per plain-text line.
func parseSuggestions(raw string) []suggestionItem {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var items []suggestionItem
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		if len(items) > 5 {
			items = items[:5]
		}
		return items
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, suggestionItem{SuggestedText: line})
		if len(items) == 5 {
			break
		}
	}
	return items
}
