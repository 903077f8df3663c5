package ai

import "errors"

var ErrUnknownModel = errors.New("ai: unknown model")

type ModelKind string

const (
	// KindStructured models take a system prompt plus the transcript as
	// ordered role/content pairs and may use tools.
	KindStructured ModelKind = "structured"
	// KindFlattened models take the whole transcript as a single prompt
	// string. Tools are never enabled for this call shape.
	KindFlattened ModelKind = "flattened"
)

type ModelTier string

const (
	TierSmall ModelTier = "small"
	// TierLarge is the only tier with tool access.
	TierLarge ModelTier = "large"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderFireworks = "fireworks"
)

// ChatModelConfig binds a public model id to a backing provider
// configuration. Configs are immutable and resolved once per request.
type ChatModelConfig struct {
	ID          string
	Name        string
	Description string
	Provider    string
	Model       string
	Kind        ModelKind
	Tier        ModelTier

	// ReasoningTag, when set, names the tag wrapping the reasoning trace
	// in the raw output (e.g. "think"), which the relay extracts into
	// separate reasoning deltas.
	ReasoningTag string

	// Internal models (title, document generation) are not listed.
	Internal bool
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog is the static model registry. It is built once at startup and
// passed by reference; it has no mutating methods.
type Catalog struct {
	order []string
	byID  map[string]ChatModelConfig
}

func NewCatalog(configs ...ChatModelConfig) *Catalog {
	c := &Catalog{byID: make(map[string]ChatModelConfig, len(configs))}
	for _, cfg := range configs {
		if _, dup := c.byID[cfg.ID]; dup {
			continue
		}
		c.byID[cfg.ID] = cfg
		c.order = append(c.order, cfg.ID)
	}
	return c
}

func (c *Catalog) Resolve(id string) (ChatModelConfig, error) {
	cfg, ok := c.byID[id]
	if !ok {
		return ChatModelConfig{}, ErrUnknownModel
	}
	return cfg, nil
}

// List returns presentation metadata for the public models in authored order.
func (c *Catalog) List() []ModelInfo {
	out := make([]ModelInfo, 0, len(c.order))
	for _, id := range c.order {
		cfg := c.byID[id]
		if cfg.Internal {
			continue
		}
		out = append(out, ModelInfo{ID: cfg.ID, Name: cfg.Name, Description: cfg.Description})
	}
	return out
}

const (
	DefaultChatModel = "chat-model-small"

	// TitleModel and BlockModel are internal-only ids used by the title
	// worker and the document tools.
	TitleModel = "title-model"
	BlockModel = "block-model"
)

func DefaultCatalog() *Catalog {
	return NewCatalog(
		ChatModelConfig{
			ID:          "chat-model-small",
			Name:        "GPT 4o mini",
			Description: "Small model for fast, lightweight tasks",
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Kind:        KindStructured,
			Tier:        TierSmall,
		},
		ChatModelConfig{
			ID:          "chat-model-large",
			Name:        "GPT 4o",
			Description: "Large model for complex, multi-step tasks",
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o",
			Kind:        KindStructured,
			Tier:        TierLarge,
		},
		ChatModelConfig{
			ID:           "chat-model-reasoning",
			Name:         "DeepSeek R1",
			Description:  "Uses advanced reasoning (Best DeepSeek model)",
			Provider:     ProviderFireworks,
			Model:        "accounts/fireworks/models/deepseek-r1",
			Kind:         KindFlattened,
			Tier:         TierSmall,
			ReasoningTag: "think",
		},
		ChatModelConfig{
			ID:          "chat-model-reasoning-2",
			Name:        "o1-mini",
			Description: "Uses advanced reasoning",
			Provider:    ProviderOpenAI,
			Model:       "o1-mini",
			Kind:        KindFlattened,
			Tier:        TierSmall,
		},
		ChatModelConfig{
			ID:          "chat-model-reasoning-3",
			Name:        "o1-preview",
			Description: "Uses advanced reasoning (Best OpenAI model)",
			Provider:    ProviderOpenAI,
			Model:       "o1-preview",
			Kind:        KindFlattened,
			Tier:        TierSmall,
		},
		ChatModelConfig{
			ID:          "chat-model-claude",
			Name:        "Claude 3.5 Sonnet",
			Description: "Anthropic model for nuanced writing tasks",
			Provider:    ProviderAnthropic,
			Model:       "claude-3-5-sonnet-latest",
			Kind:        KindStructured,
			Tier:        TierSmall,
		},
		ChatModelConfig{
			ID:          "chat-model-gemini",
			Name:        "Gemini 2.0 Flash",
			Description: "Google model with a large context window",
			Provider:    ProviderGoogle,
			Model:       "gemini-2.0-flash",
			Kind:        KindStructured,
			Tier:        TierSmall,
		},
		ChatModelConfig{
			ID:       TitleModel,
			Provider: ProviderOpenAI,
			Model:    "gpt-4-turbo",
			Kind:     KindStructured,
			Tier:     TierSmall,
			Internal: true,
		},
		ChatModelConfig{
			ID:       BlockModel,
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
			Kind:     KindStructured,
			Tier:     TierSmall,
			Internal: true,
		},
	)
}
