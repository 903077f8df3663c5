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
	"sort"
	"strings"
	"time"
)

type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type oaMsg struct {
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

type oaToolCall struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Function oaFunction `json:"function"`
}

type oaFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaTool struct {
	Type     string        `json:"type"`
	Function oaFunctionDef `json:"function"`
}

type oaFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type oaChatReq struct {
	Model    string   `json:"model"`
	Messages []oaMsg  `json:"messages"`
	Stream   bool     `json:"stream"`
	Tools    []oaTool `json:"tools,omitempty"`
}

type oaChatResp struct {
	Choices []struct {
		Message oaMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type oaStreamResp struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCalls        []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) buildRequest(call Call, stream bool) (oaChatReq, error) {
	if strings.TrimSpace(p.Model) == "" {
		return oaChatReq{}, errors.New("openai: model is required")
	}

	req := oaChatReq{Model: p.Model, Stream: stream}

	if call.Prompt != "" {
		req.Messages = []oaMsg{{Role: RoleUser, Content: call.Prompt}}
	} else {
		if call.System != "" {
			req.Messages = append(req.Messages, oaMsg{Role: RoleSystem, Content: call.System})
		}
		for _, m := range call.Messages {
			om := oaMsg{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
			for _, tc := range m.ToolCalls {
				om.ToolCalls = append(om.ToolCalls, oaToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: oaFunction{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			req.Messages = append(req.Messages, om)
		}
	}

	for _, t := range call.Tools {
		req.Tools = append(req.Tools, oaTool{
			Type: "function",
			Function: oaFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return req, nil
}

func (p *OpenAIProvider) newHTTPRequest(ctx context.Context, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	return req, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, call Call) (Message, error) {
	if p.Client == nil {
		return Message{}, errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return Message{}, errors.New("openai: api key is required")
	}

	reqBody, err := p.buildRequest(call, false)
	if err != nil {
		return Message{}, err
	}

	req, err := p.newHTTPRequest(ctx, reqBody)
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
		return Message{}, fmt.Errorf("openai: %s", msg)
	}

	var decoded oaChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Message{}, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return Message{}, errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return Message{}, errors.New("openai: empty response")
	}

	out := Message{Role: RoleAssistant, Content: decoded.Choices[0].Message.Content}
	for _, tc := range decoded.Choices[0].Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// StreamChat streams incremental output via SSE. Tool calls arrive as
// argument fragments; they are accumulated and emitted once the stream ends.
func (p *OpenAIProvider) StreamChat(ctx context.Context, call Call) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		if p.Client == nil {
			errs <- errors.New("openai: http client is nil")
			return
		}
		if strings.TrimSpace(p.APIKey) == "" {
			errs <- errors.New("openai: api key is required")
			return
		}

		reqBody, err := p.buildRequest(call, true)
		if err != nil {
			errs <- err
			return
		}

		req, err := p.newHTTPRequest(ctx, reqBody)
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
			errs <- fmt.Errorf("openai: %s", msg)
			return
		}

		// Partial tool calls keyed by choice index.
		type partialCall struct {
			id   string
			name string
			args strings.Builder
		}
		partials := make(map[int]*partialCall)

		flushCalls := func() {
			idxs := make([]int, 0, len(partials))
			for i := range partials {
				idxs = append(idxs, i)
			}
			sort.Ints(idxs)
			for _, i := range idxs {
				pc := partials[i]
				events <- StreamEvent{
					Type: EventToolCall,
					ToolCall: &ToolCall{
						ID:        pc.id,
						Name:      pc.name,
						Arguments: json.RawMessage(pc.args.String()),
					},
				}
			}
			partials = make(map[int]*partialCall)
		}

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				flushCalls()
				return
			}
			var decoded oaStreamResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- err
				return
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- errors.New(decoded.Error.Message)
				return
			}
			if len(decoded.Choices) == 0 {
				continue
			}
			choice := decoded.Choices[0]
			if choice.Delta.ReasoningContent != "" {
				events <- StreamEvent{Type: EventReasoning, Text: choice.Delta.ReasoningContent}
			}
			if choice.Delta.Content != "" {
				events <- StreamEvent{Type: EventText, Text: choice.Delta.Content}
			}
			for _, tc := range choice.Delta.ToolCalls {
				pc, ok := partials[tc.Index]
				if !ok {
					pc = &partialCall{}
					partials[tc.Index] = pc
				}
				if tc.ID != "" {
					pc.id = tc.ID
				}
				if tc.Function.Name != "" {
					pc.name = tc.Function.Name
				}
				pc.args.WriteString(tc.Function.Arguments)
			}
			if choice.FinishReason == "tool_calls" {
				flushCalls()
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err
			return
		}
		flushCalls()
	}()

	return events, errs
}
