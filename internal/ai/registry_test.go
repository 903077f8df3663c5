package ai

import (
	"context"
	"strings"
	"testing"
)

type nopProvider struct{ model string }

func (p nopProvider) Chat(ctx context.Context, call Call) (Message, error) {
	_ = ctx
	_ = call
	return Message{Role: RoleAssistant}, nil
}

func TestRegistry_GetNormalizesNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register("  OpenAI ", func(model string) (Provider, error) {
		return nopProvider{model: model}, nil
	})

	p, err := reg.Get("openai", "gpt-4o")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.(nopProvider).model != "gpt-4o" {
		t.Fatalf("model not forwarded: %+v", p)
	}

	if _, err := reg.Get("OPENAI", "gpt-4o"); err != nil {
		t.Fatalf("case-insensitive get: %v", err)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("missing", "m")
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected unknown-provider error naming it, got %v", err)
	}
}

func TestRegistry_IgnoresInvalidRegistrations(t *testing.T) {
	reg := NewRegistry()
	reg.Register("", func(model string) (Provider, error) { return nopProvider{}, nil })
	reg.Register("x", nil)

	if _, err := reg.Get("", "m"); err == nil {
		t.Fatalf("empty name should not be registered")
	}
	if _, err := reg.Get("x", "m"); err == nil {
		t.Fatalf("nil factory should not be registered")
	}
}
