package model

import (
	"time"

	"gorm.io/gorm"
)

// SimulationCase is one practice scenario: the simulated patient, the prompt
// seeding the voice session, and the marking scheme the assessment runs
// against.
type SimulationCase struct {
	ID                  uint            `gorm:"primarykey" json:"id"`
	Title               string          `json:"title" gorm:"not null"`
	PatientName         string          `json:"patient_name" gorm:"not null"`
	PresentingCondition string          `json:"presenting_condition" gorm:"not null"`
	PatientAge          *int            `json:"patient_age,omitempty"`
	PatientGender       *string         `json:"patient_gender,omitempty"`
	CasePrompt          string          `json:"case_prompt" gorm:"type:text;not null"` // seeds the voice agent persona
	OpeningLine         string          `json:"opening_line" gorm:"type:text"`
	CreditCost          int             `json:"credit_cost" gorm:"not null;default:1"`
	PrepMaterials       []PrepMaterial  `json:"prep_materials,omitempty" gorm:"foreignKey:CaseID"`
	MarkingDomains      []MarkingDomain `json:"marking_domains,omitempty" gorm:"foreignKey:CaseID"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PrepMaterial is one short preparation text item, grouped by Category for
// display and for verbatim inclusion in the assessment grounding prompt.
type PrepMaterial struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CaseID       uint           `json:"case_id" gorm:"not null;index"`
	Category     string         `json:"category" gorm:"not null"` // e.g. "History Taking", "Red Flags"
	Text         string         `json:"text" gorm:"type:text;not null"`
	DisplayOrder int            `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
