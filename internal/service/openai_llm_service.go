package service

import (
	"context"
	"fmt"

	"github.com/MHGanainy/mvp-backend-sub001/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiCompletionService struct {
	client *openai.Client
	model  string
}

func NewOpenAICompletionService(cfg *config.Config) (CompletionService, error) {
	if cfg.Completion.OpenAIApiKey == "" {
		warnMissingKey("openai")
		return &openaiCompletionService{client: nil}, nil
	}
	model := cfg.Completion.Model
	if model == "" {
		model = "gpt-4o"
	}
	client := openai.NewClient(option.WithAPIKey(cfg.Completion.OpenAIApiKey))
	return &openaiCompletionService{client: &client, model: model}, nil
}

func (s *openaiCompletionService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("openai client not initialized")
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}
