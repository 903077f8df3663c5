package ai

import "testing"

func TestCatalog_ResolveKnownAndUnknown(t *testing.T) {
	c := DefaultCatalog()

	cfg, err := c.Resolve("chat-model-large")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Provider != ProviderOpenAI || cfg.Tier != TierLarge {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := c.Resolve("no-such-model"); err != ErrUnknownModel {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestCatalog_ListHidesInternalModels(t *testing.T) {
	c := DefaultCatalog()

	for _, info := range c.List() {
		if info.ID == TitleModel || info.ID == BlockModel {
			t.Fatalf("internal model %q listed", info.ID)
		}
	}

	// listing order follows authoring order
	infos := c.List()
	if len(infos) == 0 || infos[0].ID != DefaultChatModel {
		t.Fatalf("expected %q first, got %+v", DefaultChatModel, infos)
	}
}

func TestCatalog_DuplicateIDsKeepFirst(t *testing.T) {
	c := NewCatalog(
		ChatModelConfig{ID: "m", Name: "first"},
		ChatModelConfig{ID: "m", Name: "second"},
	)
	cfg, err := c.Resolve("m")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Name != "first" {
		t.Fatalf("expected first config to win, got %q", cfg.Name)
	}
	if len(c.List()) != 1 {
		t.Fatalf("expected 1 listed model, got %d", len(c.List()))
	}
}

func TestDefaultCatalog_ReasoningModelShape(t *testing.T) {
	c := DefaultCatalog()
	cfg, err := c.Resolve("chat-model-reasoning")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Kind != KindFlattened {
		t.Fatalf("expected flattened kind, got %q", cfg.Kind)
	}
	if cfg.ReasoningTag != "think" {
		t.Fatalf("expected think tag, got %q", cfg.ReasoningTag)
	}
}
