package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

type AnthropicProvider struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

func NewAnthropicProvider(baseURL, apiKey, model string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &AnthropicProvider{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: 4096,
		Client:    &http.Client{Timeout: 90 * time.Second},
	}
}

type anTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anMsg struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anChatReq struct {
	Model     string   `json:"model"`
	MaxTokens int      `json:"max_tokens"`
	System    string   `json:"system,omitempty"`
	Messages  []anMsg  `json:"messages"`
	Tools     []anTool `json:"tools,omitempty"`
	Stream    bool     `json:"stream,omitempty"`
}

type anContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anChatResp struct {
	Content []anContentBlock `json:"content"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type anStreamEvent struct {
	Type         string `json:"type"`
	Index        int    `json:"index"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block,omitempty"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		Thinking    string `json:"thinking"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildMessages converts a Call into the Anthropic message shape. Tool
// calls become tool_use blocks on assistant turns and tool results become
// tool_result blocks on user turns.
func (p *AnthropicProvider) buildRequest(call Call, stream bool) anChatReq {
	req := anChatReq{
		Model:     p.Model,
		MaxTokens: p.MaxTokens,
		System:    call.System,
		Stream:    stream,
	}

	if call.Prompt != "" {
		req.Messages = []anMsg{{Role: RoleUser, Content: call.Prompt}}
	} else {
		for _, m := range call.Messages {
			switch {
			case m.Role == RoleTool:
				req.Messages = append(req.Messages, anMsg{
					Role: RoleUser,
					Content: []map[string]any{{
						"type":        "tool_result",
						"tool_use_id": m.ToolCallID,
						"content":     m.Content,
					}},
				})
			case len(m.ToolCalls) > 0:
				blocks := make([]map[string]any, 0, len(m.ToolCalls)+1)
				if m.Content != "" {
					blocks = append(blocks, map[string]any{"type": "text", "text": m.Content})
				}
				for _, tc := range m.ToolCalls {
					blocks = append(blocks, map[string]any{
						"type":  "tool_use",
						"id":    tc.ID,
						"name":  tc.Name,
						"input": tc.Arguments,
					})
				}
				req.Messages = append(req.Messages, anMsg{Role: m.Role, Content: blocks})
			default:
				req.Messages = append(req.Messages, anMsg{Role: m.Role, Content: m.Content})
			}
		}
	}

	for _, t := range call.Tools {
		req.Tools = append(req.Tools, anTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return req
}

func (p *AnthropicProvider) newHTTPRequest(ctx context.Context, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	return req, nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, call Call) (Message, error) {
	if p.Client == nil {
		return Message{}, errors.New("anthropic: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return Message{}, errors.New("anthropic: api key is required")
	}
	if strings.TrimSpace(p.Model) == "" {
		return Message{}, errors.New("anthropic: model is required")
	}

	req, err := p.newHTTPRequest(ctx, p.buildRequest(call, false))
	if err != nil {
		return Message{}, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Message{}, fmt.Errorf("anthropic: %s", msg)
	}

	var decoded anChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Message{}, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return Message{}, errors.New(decoded.Error.Message)
	}

	out := Message{Role: RoleAssistant}
	var b strings.Builder
	for _, block := range decoded.Content {
		switch block.Type {
		case "text":
			b.WriteString(block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	out.Content = b.String()
	return out, nil
}

func (p *AnthropicProvider) StreamChat(ctx context.Context, call Call) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		if p.Client == nil {
			errs <- errors.New("anthropic: http client is nil")
			return
		}
		if strings.TrimSpace(p.APIKey) == "" {
			errs <- errors.New("anthropic: api key is required")
			return
		}
		if strings.TrimSpace(p.Model) == "" {
			errs <- errors.New("anthropic: model is required")
			return
		}

		req, err := p.newHTTPRequest(ctx, p.buildRequest(call, true))
		if err != nil {
			errs <- err
			return
		}

		// Long streams outlive the request timeout; ctx governs cancellation.
		client := *p.Client
		client.Timeout = 0

		resp, err := client.Do(req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
			msg := strings.TrimSpace(string(body))
			if msg == "" {
				msg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			errs <- fmt.Errorf("anthropic: %s", msg)
			return
		}

		// Tool_use blocks stream their input as partial JSON keyed by
		// block index; emit the call when its block stops.
		type partialTool struct {
			id   string
			name string
			args strings.Builder
		}
		partials := make(map[int]*partialTool)

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var ev anStreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				errs <- err
				return
			}

			switch ev.Type {
			case "error":
				msg := "anthropic: stream error"
				if ev.Error != nil {
					msg = ev.Error.Message
				}
				errs <- errors.New(msg)
				return
			case "content_block_start":
				if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
					partials[ev.Index] = &partialTool{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
				}
			case "content_block_delta":
				if ev.Delta == nil {
					continue
				}
				switch ev.Delta.Type {
				case "text_delta":
					if ev.Delta.Text != "" {
						events <- StreamEvent{Type: EventText, Text: ev.Delta.Text}
					}
				case "thinking_delta":
					if ev.Delta.Thinking != "" {
						events <- StreamEvent{Type: EventReasoning, Text: ev.Delta.Thinking}
					}
				case "input_json_delta":
					if pt, ok := partials[ev.Index]; ok {
						pt.args.WriteString(ev.Delta.PartialJSON)
					}
				}
			case "content_block_stop":
				if pt, ok := partials[ev.Index]; ok {
					args := pt.args.String()
					if args == "" {
						args = "{}"
					}
					events <- StreamEvent{
						Type: EventToolCall,
						ToolCall: &ToolCall{
							ID:        pt.id,
							Name:      pt.name,
							Arguments: json.RawMessage(args),
						},
					}
					delete(partials, ev.Index)
				}
			case "message_stop":
				return
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err
			return
		}
	}()

	return events, errs
}
