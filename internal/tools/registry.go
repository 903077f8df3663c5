package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reldane/chatrelay/internal/ai"
)

// Context carries the authenticated session and the shared output stream
// into a tool invocation. Emit interleaves tool progress onto the same
// ordered stream as model deltas.
type Context struct {
	UserID uint64
	ChatID string
	Emit   func(ai.StreamEvent)
}

type Tool interface {
	Spec() ai.ToolSpec
	Invoke(ctx context.Context, args json.RawMessage, tc Context) (string, error)
}

type Registry struct {
	order  []string
	byName map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Spec().Name
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byName[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Specs returns tool descriptions in registration order, for the provider call.
func (r *Registry) Specs() []ai.ToolSpec {
	out := make([]ai.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Spec())
	}
	return out
}

func (r *Registry) Invoke(ctx context.Context, call ai.ToolCall, tc Context) (string, error) {
	t, ok := r.byName[call.Name]
	if !ok {
		return "", fmt.Errorf("tools: unknown tool %q", call.Name)
	}
	return t.Invoke(ctx, call.Arguments, tc)
}
