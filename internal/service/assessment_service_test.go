package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
)

type fakeCompletionService struct {
	response string
	err      error

	gotSystem string
	gotUser   string
}

func (f *fakeCompletionService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.gotSystem = systemPrompt
	f.gotUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// markedCase builds a case with count criteria of 1 point each, spread across
// two domains, IDs 1..count.
func markedCase(count int) *model.SimulationCase {
	c := &model.SimulationCase{
		ID:                  7,
		Title:               "Acute chest pain",
		PatientName:         "Sarah Mills",
		PresentingCondition: "Chest pain radiating to the left arm",
		MarkingDomains: []model.MarkingDomain{
			{ID: 1, Name: "History taking"},
			{ID: 2, Name: "Communication"},
		},
	}
	for i := 1; i <= count; i++ {
		d := &c.MarkingDomains[0]
		if i > count/2 {
			d = &c.MarkingDomains[1]
		}
		d.Criteria = append(d.Criteria, model.MarkingCriterion{
			ID:     uint(i),
			Text:   "Criterion text",
			Points: 1,
		})
	}
	return c
}

func responseMeeting(metIDs []uint, total int) string {
	met := make(map[uint]bool, len(metIDs))
	for _, id := range metIDs {
		met[id] = true
	}
	payload := llmAssessmentPayload{OverallFeedback: "Solid consultation overall."}
	for i := 1; i <= total; i++ {
		payload.Criteria = append(payload.Criteria, llmCriterionJudgement{
			CriterionID: uint(i),
			Met:         met[uint(i)],
			Quotes:      []string{"quote"},
			Feedback:    "judged",
		})
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func idsUpTo(n int) []uint {
	ids := make([]uint, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, uint(i))
	}
	return ids
}

func TestGenerateAssessment_ClassificationBoundaries(t *testing.T) {
	// 100 one-point criteria make met-count equal both percentages, so the
	// band boundaries can be pinned exactly.
	cases := []struct {
		met  int
		want string
	}{
		{76, dto.ClassificationClearPass},
		{75, dto.ClassificationBorderlinePass},
		{50, dto.ClassificationBorderlinePass},
		{49, dto.ClassificationBorderlineFail},
		{25, dto.ClassificationBorderlineFail},
		{24, dto.ClassificationClearFail},
		{0, dto.ClassificationClearFail},
	}

	for _, tc := range cases {
		fake := &fakeCompletionService{response: responseMeeting(idsUpTo(tc.met), 100)}
		svc := NewAssessmentService(fake)

		result, _ := svc.GenerateAssessment(context.Background(), markedCase(100), dto.NormalizedTranscript{})

		if result.Classification != tc.want {
			t.Errorf("%d/100 met: expected %q, got %q", tc.met, tc.want, result.Classification)
		}
		if result.AnalysisFailed {
			t.Errorf("%d/100 met: unexpected AnalysisFailed", tc.met)
		}
		if result.CriteriaMetPercent != tc.met {
			t.Errorf("%d/100 met: expected CriteriaMetPercent %d, got %d", tc.met, tc.met, result.CriteriaMetPercent)
		}
	}
}

func TestGenerateAssessment_ScoreIsPointsWeighted(t *testing.T) {
	// One 9-point criterion met, three 1-point criteria unmet: score is
	// points-weighted (75) while classification follows the met count (25%,
	// borderline fail). The divergence is intentional.
	c := &model.SimulationCase{
		ID:          3,
		Title:       "Abdominal pain",
		PatientName: "John Doyle",
		MarkingDomains: []model.MarkingDomain{
			{ID: 1, Name: "Examination", Criteria: []model.MarkingCriterion{
				{ID: 1, Text: "Key criterion", Points: 9},
				{ID: 2, Text: "Minor", Points: 1},
				{ID: 3, Text: "Minor", Points: 1},
				{ID: 4, Text: "Minor", Points: 1},
			}},
		},
	}
	fake := &fakeCompletionService{response: responseMeeting([]uint{1}, 4)}
	svc := NewAssessmentService(fake)

	result, _ := svc.GenerateAssessment(context.Background(), c, dto.NormalizedTranscript{})

	if result.OverallScore != 75 {
		t.Errorf("expected points-weighted score 75, got %d", result.OverallScore)
	}
	if result.CriteriaMetPercent != 25 {
		t.Errorf("expected 25%% criteria met, got %d", result.CriteriaMetPercent)
	}
	if result.Classification != dto.ClassificationBorderlineFail {
		t.Errorf("expected count-weighted borderline_fail, got %q", result.Classification)
	}
}

func TestGenerateAssessment_MissingCriterionIsNotMet(t *testing.T) {
	// The model only judged criteria 1 and 2 out of 4.
	fake := &fakeCompletionService{response: responseMeeting([]uint{1, 2}, 2)}
	svc := NewAssessmentService(fake)

	result, _ := svc.GenerateAssessment(context.Background(), markedCase(4), dto.NormalizedTranscript{})

	if result.AnalysisFailed {
		t.Fatal("missing criteria must degrade gracefully, not fail the assessment")
	}
	var judged int
	for _, d := range result.Domains {
		for _, cr := range d.Criteria {
			judged++
			if cr.CriterionID > 2 && cr.Met {
				t.Errorf("criterion %d was never judged and must not be met", cr.CriterionID)
			}
		}
	}
	if judged != 4 {
		t.Errorf("expected all 4 scheme criteria in the result, got %d", judged)
	}
	if result.CriteriaMetPercent != 50 {
		t.Errorf("expected 50%% met, got %d", result.CriteriaMetPercent)
	}
}

func TestGenerateAssessment_QuotesCapped(t *testing.T) {
	payload := llmAssessmentPayload{
		OverallFeedback: "ok",
		Criteria: []llmCriterionJudgement{{
			CriterionID: 1,
			Met:         true,
			Quotes:      []string{"one", "two", "three", "four", "five"},
		}},
	}
	data, _ := json.Marshal(payload)
	fake := &fakeCompletionService{response: string(data)}
	svc := NewAssessmentService(fake)

	result, _ := svc.GenerateAssessment(context.Background(), markedCase(1), dto.NormalizedTranscript{})

	var quotes []string
	for _, d := range result.Domains {
		for _, cr := range d.Criteria {
			quotes = cr.Quotes
		}
	}
	if len(quotes) != maxQuotesPerCriterion {
		t.Errorf("expected quotes capped at %d, got %d", maxQuotesPerCriterion, len(quotes))
	}
}

func TestGenerateAssessment_CompletionFailureDegrades(t *testing.T) {
	fake := &fakeCompletionService{err: errors.New("provider unreachable")}
	svc := NewAssessmentService(fake)

	result, prompts := svc.GenerateAssessment(context.Background(), markedCase(4), dto.NormalizedTranscript{})

	if !result.AnalysisFailed {
		t.Fatal("expected AnalysisFailed on completion error")
	}
	if result.OverallFeedback == "" {
		t.Error("degraded result must still carry fallback feedback")
	}
	if prompts.SystemPrompt == "" || prompts.UserPrompt == "" {
		t.Error("prompts must be returned even when the completion fails")
	}
}

func TestGenerateAssessment_UnparseableResponseDegrades(t *testing.T) {
	fake := &fakeCompletionService{response: "I am unable to produce JSON today."}
	svc := NewAssessmentService(fake)

	result, _ := svc.GenerateAssessment(context.Background(), markedCase(4), dto.NormalizedTranscript{})

	if !result.AnalysisFailed {
		t.Fatal("expected AnalysisFailed on unparseable response")
	}
}

func TestGenerateAssessment_EmptyMarkingSchemeIsClearFail(t *testing.T) {
	c := &model.SimulationCase{ID: 9, Title: "Empty scheme", PatientName: "N/A"}
	fake := &fakeCompletionService{response: validPayloadJSON(1)}
	svc := NewAssessmentService(fake)

	result, _ := svc.GenerateAssessment(context.Background(), c, dto.NormalizedTranscript{})

	if result.Classification != dto.ClassificationClearFail {
		t.Errorf("expected clear_fail for empty scheme, got %q", result.Classification)
	}
	if result.OverallScore != 0 {
		t.Errorf("expected zero score for empty scheme, got %d", result.OverallScore)
	}
}

func TestBuildSystemPrompt_ContainsSchemeAndThresholds(t *testing.T) {
	c := markedCase(4)
	c.PrepMaterials = []model.PrepMaterial{
		{Category: "Candidate briefing", Text: "You are the FY2 doctor in the emergency department."},
	}

	prompt := buildSystemPrompt(c)

	required := []string{
		"Sarah Mills",
		"Acute chest pain",
		"Candidate briefing",
		"You are the FY2 doctor in the emergency department.",
		"Domain 1: History taking",
		"Domain 2: Communication",
		"[criterion 1, 1 points]",
		"more than 75% met: clear pass",
		"criterion_id",
		"overall_feedback",
	}
	for _, keyword := range required {
		if !strings.Contains(prompt, keyword) {
			t.Errorf("system prompt missing %q", keyword)
		}
	}
}

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	c := markedCase(6)
	if buildSystemPrompt(c) != buildSystemPrompt(c) {
		t.Error("system prompt must be deterministic for a given case")
	}
}

func TestBuildUserPrompt_RendersTranscriptLines(t *testing.T) {
	transcript := dto.NormalizedTranscript{
		Messages: []dto.TranscriptMessage{
			{Speaker: dto.SpeakerDoctor, Text: "What brings you in today?", Timestamp: "2026-03-01T10:00:00Z"},
			{Speaker: dto.SpeakerPatient, Text: "My chest hurts.", Timestamp: "2026-03-01T10:00:05Z"},
		},
		MessageCount:    2,
		DurationSeconds: 5,
	}

	prompt := buildUserPrompt(transcript)

	required := []string{
		"2 messages, 5 seconds",
		"[2026-03-01T10:00:00Z] DOCTOR: What brings you in today?",
		"[2026-03-01T10:00:05Z] PATIENT: My chest hurts.",
	}
	for _, keyword := range required {
		if !strings.Contains(prompt, keyword) {
			t.Errorf("user prompt missing %q", keyword)
		}
	}
}
