package service

import (
	"context"
	"fmt"

	"github.com/MHGanainy/mvp-backend-sub001/config"
	"github.com/rs/zerolog/log"
)

// CompletionService sends one system/user prompt pair to an LLM backend and
// returns the raw response text. Implementations fail on transport errors or
// non-success status; callers treat any failure as equivalent to an
// unparseable response.
type CompletionService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewCompletionService selects the provider named by COMPLETION_PROVIDER.
func NewCompletionService(cfg *config.Config) (CompletionService, error) {
	switch cfg.Completion.Provider {
	case "anthropic":
		return NewAnthropicCompletionService(cfg)
	case "gemini":
		return NewGeminiCompletionService(cfg)
	case "openai", "":
		return NewOpenAICompletionService(cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}
}

func warnMissingKey(provider string) {
	log.Warn().Str("provider", provider).Msg("Completion API key is not set, completion service will be non-functional")
}
