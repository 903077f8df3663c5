package ai

import (
	"fmt"
	"strings"
	"sync"
)

// ProviderFactory builds a provider bound to a concrete model name.
type ProviderFactory func(model string) (Provider, error)

// Registry routes catalog provider names to factories. Names are
// case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

// Register binds a provider name to its factory. Empty names and nil
// factories are ignored.
func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(name, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("ai: unknown provider %q", name)
	}
	return f(model)
}
