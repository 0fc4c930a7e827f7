package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one student's timed practice session against a simulation case.
// Lifecycle: created -> in-progress (voice session open) -> completed or
// cancelled; EndedAt and DurationSeconds are always set together, Score is
// non-nil only when Completed is true and assessment succeeded. A completed
// attempt is never mutated again.
type Attempt struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	StudentID        uint           `json:"student_id" gorm:"not null;index"`
	Student          Student        `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	CaseID           uint           `json:"case_id" gorm:"not null;index"`
	Case             SimulationCase `json:"case,omitempty" gorm:"foreignKey:CaseID"`
	CorrelationToken string         `json:"correlation_token" gorm:"not null;uniqueIndex"`
	StartedAt        time.Time      `json:"started_at" gorm:"not null"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
	DurationSeconds  *int           `json:"duration_seconds,omitempty"`
	Completed        bool           `json:"completed" gorm:"not null;default:false"`
	Score            *int           `json:"score,omitempty"` // 0-100
	Assessment       *string        `json:"assessment,omitempty" gorm:"type:jsonb"`
	RawTranscript    *string        `json:"raw_transcript,omitempty" gorm:"type:jsonb"` // written out-of-band by the voice agent
	SystemPrompt     *string        `json:"-" gorm:"type:text"`
	UserPrompt       *string        `json:"-" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
