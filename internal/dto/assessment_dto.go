package dto

// Classification bands, ordered best to worst. Derived from the fraction of
// criteria met (not from points): >75% clear pass, 50-75% borderline pass,
// 25-50% borderline fail, <25% clear fail, each band inclusive on its lower
// bound.
const (
	ClassificationClearPass      = "clear_pass"
	ClassificationBorderlinePass = "borderline_pass"
	ClassificationBorderlineFail = "borderline_fail"
	ClassificationClearFail      = "clear_fail"
)

// CriterionResult is the binary judgement for one marking criterion.
type CriterionResult struct {
	CriterionID uint     `json:"criterion_id"`
	Text        string   `json:"text"`
	Points      int      `json:"points"`
	Met         bool     `json:"met"`
	Quotes      []string `json:"quotes,omitempty"` // 1-3 supporting transcript quotations
	Feedback    string   `json:"feedback,omitempty"`
}

// DomainResult aggregates one marking domain. AchievedPoints never exceeds
// TotalPoints.
type DomainResult struct {
	DomainID       uint              `json:"domain_id"`
	Name           string            `json:"name"`
	TotalPoints    int               `json:"total_points"`
	AchievedPoints int               `json:"achieved_points"`
	Percentage     int               `json:"percentage"`
	Criteria       []CriterionResult `json:"criteria"`
}

// AssessmentResult is the structured assessment embedded in a completed
// attempt. OverallScore is points-weighted; Classification is
// criteria-count-weighted. The two intentionally diverge.
type AssessmentResult struct {
	OverallFeedback    string         `json:"overall_feedback"`
	Classification     string         `json:"classification,omitempty"`
	CriteriaMetPercent int            `json:"criteria_met_percent"`
	OverallScore       int            `json:"overall_score"`
	AnalysisFailed     bool           `json:"analysis_failed,omitempty"`
	Domains            []DomainResult `json:"domains"`
}

// PromptPair is the literal prompt pair sent to the completion provider,
// returned for audit and exposed only on the debug read path.
type PromptPair struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

// CancelledMarker is stored in the assessment column of a cancelled attempt so
// readers can tell "ended without assessment" from "assessment degraded".
type CancelledMarker struct {
	Status string `json:"status"` // always "cancelled"
}
