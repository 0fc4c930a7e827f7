package service

import (
	"context"
	"fmt"

	"github.com/MHGanainy/mvp-backend-sub001/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiCompletionService struct {
	client *genai.Client
	model  string
}

func NewGeminiCompletionService(cfg *config.Config) (CompletionService, error) {
	if cfg.Completion.GeminiApiKey == "" {
		warnMissingKey("gemini")
		return &geminiCompletionService{client: nil}, nil
	}
	model := cfg.Completion.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Completion.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiCompletionService{client: client, model: model}, nil
}

func (s *geminiCompletionService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	gm := s.client.GenerativeModel(s.model)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := gm.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return text, nil
}
