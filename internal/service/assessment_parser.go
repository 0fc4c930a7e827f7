package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// llmAssessmentPayload is the schema the completion provider is instructed to
// return. Domain grouping and all arithmetic happen in this service, never in
// the model.
type llmAssessmentPayload struct {
	OverallFeedback string                  `json:"overall_feedback"`
	Criteria        []llmCriterionJudgement `json:"criteria"`
}

type llmCriterionJudgement struct {
	CriterionID uint     `json:"criterion_id"`
	Met         bool     `json:"met"`
	Quotes      []string `json:"quotes"`
	Feedback    string   `json:"feedback"`
}

// parseAssessmentPayload extracts the structured payload from a raw model
// response. Some providers do not support constrained output and wrap the JSON
// in prose or markdown fences, so only the span between the first opening and
// last closing brace is parsed.
func parseAssessmentPayload(raw string) (*llmAssessmentPayload, error) {
	span, err := extractJSONSpan(raw)
	if err != nil {
		return nil, err
	}

	var payload llmAssessmentPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse assessment JSON: %w", err)
	}
	if len(payload.Criteria) == 0 {
		return nil, fmt.Errorf("assessment response contains no criteria")
	}
	return &payload, nil
}

func extractJSONSpan(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
