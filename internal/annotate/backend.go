// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"fmt"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// NamedBackend is a Backend that can report which provider and model it
// talks to. The name is recorded on stored documents.
type NamedBackend interface {
	Backend
	Name() string
}

// NewBackend constructs the backend selected by cfg.Provider. An empty
// provider selects Gemini.
func NewBackend(ctx context.Context, cfg types.AIConfig) (NamedBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", providerOrDefault(cfg.Provider))
	}
	switch providerOrDefault(cfg.Provider) {
	case types.ProviderGemini:
		return NewGeminiBackend(ctx, cfg)
	case types.ProviderOpenAI:
		return NewOpenAIBackend(cfg), nil
	case types.ProviderClaude:
		return NewClaudeBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q: use gemini, openai, or claude", cfg.Provider)
	}
}

func providerOrDefault(p types.AIProvider) types.AIProvider {
	if p == "" {
		return types.ProviderGemini
	}
	return p
}
