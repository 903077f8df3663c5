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

type GoogleProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewGoogleProvider(baseURL, apiKey, model string) *GoogleProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GoogleProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type gPart struct {
	Text string `json:"text"`
}

type gContent struct {
	Role  string  `json:"role,omitempty"`
	Parts []gPart `json:"parts"`
}

type gChatReq struct {
	SystemInstruction *gContent  `json:"systemInstruction,omitempty"`
	Contents          []gContent `json:"contents"`
}

type gChatResp struct {
	Candidates []struct {
		Content gContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildRequest converts a Call to the Gemini shape: assistant turns use
// role "model", tool results are folded into user text. Tools are not
// forwarded; only small-tier models route here and those carry none.
func (p *GoogleProvider) buildRequest(call Call) gChatReq {
	var req gChatReq
	if call.System != "" {
		req.SystemInstruction = &gContent{Parts: []gPart{{Text: call.System}}}
	}
	if call.Prompt != "" {
		req.Contents = []gContent{{Role: "user", Parts: []gPart{{Text: call.Prompt}}}}
		return req
	}
	for _, m := range call.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, gContent{Role: role, Parts: []gPart{{Text: m.Content}}})
	}
	return req
}

func (p *GoogleProvider) endpoint(method, query string) string {
	return fmt.Sprintf("%s/models/%s:%s?%skey=%s",
		strings.TrimRight(p.BaseURL, "/"), p.Model, method, query, p.APIKey)
}

func (p *GoogleProvider) Chat(ctx context.Context, call Call) (Message, error) {
	if p.Client == nil {
		return Message{}, errors.New("google: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return Message{}, errors.New("google: api key is required")
	}
	if strings.TrimSpace(p.Model) == "" {
		return Message{}, errors.New("google: model is required")
	}

	b, err := json.Marshal(p.buildRequest(call))
	if err != nil {
		return Message{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("generateContent", ""), bytes.NewReader(b))
	if err != nil {
		return Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")

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
		return Message{}, fmt.Errorf("google: %s", msg)
	}

	var decoded gChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Message{}, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return Message{}, errors.New(decoded.Error.Message)
	}
	if len(decoded.Candidates) == 0 {
		return Message{}, errors.New("google: empty response")
	}

	var sb strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return Message{Role: RoleAssistant, Content: sb.String()}, nil
}

func (p *GoogleProvider) StreamChat(ctx context.Context, call Call) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		if p.Client == nil {
			errs <- errors.New("google: http client is nil")
			return
		}
		if strings.TrimSpace(p.APIKey) == "" {
			errs <- errors.New("google: api key is required")
			return
		}
		if strings.TrimSpace(p.Model) == "" {
			errs <- errors.New("google: model is required")
			return
		}

		b, err := json.Marshal(p.buildRequest(call))
		if err != nil {
			errs <- err
			return
		}

		url := p.endpoint("streamGenerateContent", "alt=sse&")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			errs <- err
			return
		}
		req.Header.Set("Content-Type", "application/json")

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
			errs <- fmt.Errorf("google: %s", msg)
			return
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

			var decoded gChatResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- err
				return
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- errors.New(decoded.Error.Message)
				return
			}
			for _, cand := range decoded.Candidates {
				for _, part := range cand.Content.Parts {
					if part.Text != "" {
						events <- StreamEvent{Type: EventText, Text: part.Text}
					}
				}
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err
			return
		}
	}()

	return events, errs
}
