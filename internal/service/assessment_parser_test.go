package service

import (
	"encoding/json"
	"testing"
)

func validPayloadJSON(criteriaCount int) string {
	payload := llmAssessmentPayload{
		OverallFeedback: "A well structured consultation with clear safety netting.",
		Criteria:        make([]llmCriterionJudgement, criteriaCount),
	}
	for i := 0; i < criteriaCount; i++ {
		payload.Criteria[i] = llmCriterionJudgement{
			CriterionID: uint(i + 1),
			Met:         i%2 == 0,
			Quotes:      []string{"Can you tell me more about the pain?"},
			Feedback:    "The candidate addressed this directly.",
		}
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestParseAssessmentPayload_ValidJSON(t *testing.T) {
	payload, err := parseAssessmentPayload(validPayloadJSON(4))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(payload.Criteria) != 4 {
		t.Errorf("expected 4 criteria, got %d", len(payload.Criteria))
	}
	if payload.OverallFeedback == "" {
		t.Error("expected overall feedback to be populated")
	}
}

func TestParseAssessmentPayload_MarkdownFences(t *testing.T) {
	input := "```json\n" + validPayloadJSON(2) + "\n```"

	payload, err := parseAssessmentPayload(input)
	if err != nil {
		t.Fatalf("expected no error with markdown fences, got: %v", err)
	}
	if len(payload.Criteria) != 2 {
		t.Errorf("expected 2 criteria, got %d", len(payload.Criteria))
	}
}

func TestParseAssessmentPayload_SurroundingProse(t *testing.T) {
	input := "Here is the assessment you asked for:\n" + validPayloadJSON(3) + "\nLet me know if you need anything else."

	payload, err := parseAssessmentPayload(input)
	if err != nil {
		t.Fatalf("expected no error with surrounding prose, got: %v", err)
	}
	if len(payload.Criteria) != 3 {
		t.Errorf("expected 3 criteria, got %d", len(payload.Criteria))
	}
}

func TestParseAssessmentPayload_NoJSON(t *testing.T) {
	if _, err := parseAssessmentPayload("I cannot assess this transcript."); err == nil {
		t.Fatal("expected an error for a response without JSON")
	}
}

func TestParseAssessmentPayload_MalformedJSON(t *testing.T) {
	if _, err := parseAssessmentPayload(`{"overall_feedback": "ok", "criteria": [{"criterion_id": }]}`); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestParseAssessmentPayload_EmptyCriteria(t *testing.T) {
	if _, err := parseAssessmentPayload(`{"overall_feedback": "ok", "criteria": []}`); err == nil {
		t.Fatal("expected an error when no criteria are present")
	}
}
