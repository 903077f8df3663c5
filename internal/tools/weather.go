package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reldane/chatrelay/internal/ai"
)

// Weather reports current conditions for a coordinate pair via the
// Open-Meteo forecast endpoint. No API key required.
type Weather struct {
	BaseURL string
	Client  *http.Client
}

func NewWeather(baseURL string) *Weather {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	return &Weather{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *Weather) Spec() ai.ToolSpec {
	return ai.ToolSpec{
		Name:        "getWeather",
		Description: "Get the current weather at a location",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"latitude": {"type": "number"},
				"longitude": {"type": "number"}
			},
			"required": ["latitude", "longitude"]
		}`),
	}
}

type weatherArgs struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (w *Weather) Invoke(ctx context.Context, args json.RawMessage, tc Context) (string, error) {
	if w.Client == nil {
		return "", errors.New("weather: http client is nil")
	}

	var in weatherArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("weather: bad arguments: %w", err)
	}

	url := fmt.Sprintf(
		"%s/v1/forecast?latitude=%f&longitude=%f&current=temperature_2m&hourly=temperature_2m&daily=sunrise,sunset&timezone=auto",
		strings.TrimRight(w.BaseURL, "/"), in.Latitude, in.Longitude,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("weather: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
