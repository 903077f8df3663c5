package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reldane/chatrelay/internal/ai"
)

const (
	createDocumentSystem = "Write a document about the given topic. Markdown is supported. " +
		"Use headings wherever appropriate. Do not add any preamble before the document itself."
	updateDocumentSystem = "You are given a document and a description of the desired change. " +
		"Rewrite the full document with the change applied. Output only the document."
)

// CreateDocument writes a new long-form document with a writer model,
// streaming each content delta onto the shared output stream as it is
// produced.
type CreateDocument struct {
	store  Store
	writer ai.Provider
}

func NewCreateDocument(store Store, writer ai.Provider) *CreateDocument {
	return &CreateDocument{store: store, writer: writer}
}

func (t *CreateDocument) Spec() ai.ToolSpec {
	return ai.ToolSpec{
		Name:        "createDocument",
		Description: "Create a document for a writing activity. The document content is generated and shown to the user as it is written.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string"},
				"kind": {"type": "string", "enum": ["text", "code"]}
			},
			"required": ["title"]
		}`),
	}
}

type createDocumentArgs struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func (t *CreateDocument) Invoke(ctx context.Context, args json.RawMessage, tc Context) (string, error) {
	var in createDocumentArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("createDocument: bad arguments: %w", err)
	}
	if in.Kind == "" {
		in.Kind = "text"
	}

	content, err := generateContent(ctx, t.writer, ai.Call{
		System:   createDocumentSystem,
		Messages: []ai.Message{{Role: ai.RoleUser, Content: in.Title}},
	}, tc)
	if err != nil {
		return "", err
	}

	doc := &Document{
		DocumentID: uuid.NewString(),
		UserID:     tc.UserID,
		Title:      in.Title,
		Kind:       in.Kind,
		Content:    content,
	}
	if err := t.store.SaveDocument(ctx, doc); err != nil {
		return "", err
	}

	return toolResultJSON(map[string]any{
		"id":      doc.DocumentID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"message": "A document was created and is now visible to the user.",
	}), nil
}

// UpdateDocument rewrites an existing document. Documents owned by other
// users are reported as not found.
type UpdateDocument struct {
	store  Store
	writer ai.Provider
}

func NewUpdateDocument(store Store, writer ai.Provider) *UpdateDocument {
	return &UpdateDocument{store: store, writer: writer}
}

func (t *UpdateDocument) Spec() ai.ToolSpec {
	return ai.ToolSpec{
		Name:        "updateDocument",
		Description: "Update an existing document with the described changes",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string"},
				"description": {"type": "string"}
			},
			"required": ["id", "description"]
		}`),
	}
}

type updateDocumentArgs struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

func (t *UpdateDocument) Invoke(ctx context.Context, args json.RawMessage, tc Context) (string, error) {
	var in updateDocumentArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("updateDocument: bad arguments: %w", err)
	}

	doc, err := t.store.GetDocumentByID(ctx, in.ID)
	if err != nil {
		return "", err
	}
	if doc.UserID != tc.UserID {
		// Hide existence from other users.
		return "", ErrNotFound
	}

	prompt := fmt.Sprintf("Change description: %s\n\nCurrent document:\n%s", in.Description, doc.Content)
	content, err := generateContent(ctx, t.writer, ai.Call{
		System:   updateDocumentSystem,
		Messages: []ai.Message{{Role: ai.RoleUser, Content: prompt}},
	}, tc)
	if err != nil {
		return "", err
	}

	doc.Content = content
	if err := t.store.UpdateDocument(ctx, doc); err != nil {
		return "", err
	}

	return toolResultJSON(map[string]any{
		"id":      doc.DocumentID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"message": "The document has been updated.",
	}), nil
}

// generateContent streams the writer model's output onto the shared stream
// as tool progress and returns the full text. Falls back to a blocking
// call when the writer cannot stream.
func generateContent(ctx context.Context, writer ai.Provider, call ai.Call, tc Context) (string, error) {
	sp, ok := writer.(ai.StreamProvider)
	if !ok {
		msg, err := writer.Chat(ctx, call)
		if err != nil {
			return "", err
		}
		if tc.Emit != nil {
			tc.Emit(ai.StreamEvent{Type: ai.EventToolProgress, Text: msg.Content})
		}
		return msg.Content, nil
	}

	events, errs := sp.StreamChat(ctx, call)

	var b strings.Builder
	for ev := range events {
		if ev.Type != ai.EventText {
			continue
		}
		b.WriteString(ev.Text)
		if tc.Emit != nil {
			tc.Emit(ai.StreamEvent{Type: ai.EventToolProgress, Text: ev.Text})
		}
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return b.String(), nil
}

func toolResultJSON(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"message":"tool completed"}`
	}
	return string(b)
}
