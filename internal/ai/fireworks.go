package ai

import (
	"net/http"
	"time"
)

// NewFireworksProvider returns a provider for the Fireworks inference API.
// Fireworks speaks the OpenAI chat-completions wire format, so the client
// is shared; only the endpoint differs. Reasoning models served here emit
// their trace inline (e.g. a <think> block), which the relay splits out.
func NewFireworksProvider(baseURL, apiKey, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.fireworks.ai/inference/v1"
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}
