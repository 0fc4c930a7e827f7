package dto

import (
	"encoding/json"
	"time"
)

// SessionConnection is what the caller needs to join the realtime voice
// session opened for an attempt.
type SessionConnection struct {
	AccessToken string `json:"access_token"`
	ServerURL   string `json:"server_url"`
	RoomName    string `json:"room_name"`
}

// AttemptResponse exposes persisted attempt fields verbatim, minus the
// provider prompts (debug path only).
type AttemptResponse struct {
	ID               uint            `json:"id"`
	StudentID        uint            `json:"student_id"`
	CaseID           uint            `json:"case_id"`
	CaseTitle        string          `json:"case_title,omitempty"`
	CorrelationToken string          `json:"correlation_token"`
	StartedAt        time.Time       `json:"started_at"`
	EndedAt          *time.Time      `json:"ended_at,omitempty"`
	DurationSeconds  *int            `json:"duration_seconds,omitempty"`
	Completed        bool            `json:"completed"`
	Score            *int            `json:"score,omitempty"`
	Assessment       json.RawMessage `json:"assessment,omitempty"`
	RawTranscript    json.RawMessage `json:"raw_transcript,omitempty"`
}

// CreateAttemptResponse pairs the new attempt with its session connection
// details.
type CreateAttemptResponse struct {
	Attempt    AttemptResponse   `json:"attempt"`
	Connection SessionConnection `json:"connection"`
}

// AttemptDebugResponse additionally carries the literal prompt pair used for
// assessment generation.
type AttemptDebugResponse struct {
	AttemptResponse
	SystemPrompt *string `json:"system_prompt,omitempty"`
	UserPrompt   *string `json:"user_prompt,omitempty"`
}

// PrepMaterialGroup groups prep material texts under their category name,
// ordered for display.
type PrepMaterialGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type MarkingCriterionResponse struct {
	ID           uint   `json:"id"`
	Text         string `json:"text"`
	Points       int    `json:"points"`
	DisplayOrder int    `json:"display_order"`
}

type MarkingDomainResponse struct {
	ID           uint                       `json:"id"`
	Name         string                     `json:"name"`
	DisplayOrder int                        `json:"display_order"`
	Criteria     []MarkingCriterionResponse `json:"criteria"`
}

type CaseSummaryResponse struct {
	ID                  uint      `json:"id"`
	Title               string    `json:"title"`
	PatientName         string    `json:"patient_name"`
	PresentingCondition string    `json:"presenting_condition"`
	CreditCost          int       `json:"credit_cost"`
	CreatedAt           time.Time `json:"created_at"`
}

type CaseResponse struct {
	ID                  uint                    `json:"id"`
	Title               string                  `json:"title"`
	PatientName         string                  `json:"patient_name"`
	PresentingCondition string                  `json:"presenting_condition"`
	PatientAge          *int                    `json:"patient_age,omitempty"`
	PatientGender       *string                 `json:"patient_gender,omitempty"`
	CreditCost          int                     `json:"credit_cost"`
	PrepMaterials       []PrepMaterialGroup     `json:"prep_materials,omitempty"`
	MarkingDomains      []MarkingDomainResponse `json:"marking_domains,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
}

// CreditBalanceResponse reports a student's balance. Unlimited is true for
// privileged callers, which are never billed.
type CreditBalanceResponse struct {
	StudentID uint `json:"student_id"`
	Credits   int  `json:"credits"`
	Unlimited bool `json:"unlimited"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
