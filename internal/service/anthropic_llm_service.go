package service

import (
	"context"
	"fmt"

	"github.com/MHGanainy/mvp-backend-sub001/config"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicCompletionService struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicCompletionService(cfg *config.Config) (CompletionService, error) {
	if cfg.Completion.AnthropicApiKey == "" {
		warnMissingKey("anthropic")
		return &anthropicCompletionService{client: nil}, nil
	}
	model := cfg.Completion.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.Completion.AnthropicApiKey))
	return &anthropicCompletionService{client: &client, model: model}, nil
}

func (s *anthropicCompletionService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("anthropic client not initialized")
	}

	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic returned no text content")
}
