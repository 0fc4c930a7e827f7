package model

import (
	"time"

	"gorm.io/gorm"
)

// MarkingDomain groups an ordered set of binary criteria (e.g. "Communication
// Skills", "Clinical Reasoning"). Read-only for the attempt core; criteria
// referenced by a completed assessment must stay immutable so historical
// assessments remain reproducible.
type MarkingDomain struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	CaseID       uint               `json:"case_id" gorm:"not null;index"`
	Name         string             `json:"name" gorm:"not null"`
	DisplayOrder int                `json:"display_order" gorm:"not null;default:0"`
	Criteria     []MarkingCriterion `json:"criteria,omitempty" gorm:"foreignKey:DomainID"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	DeletedAt    gorm.DeletedAt     `gorm:"index" json:"-"`
}

type MarkingCriterion struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	DomainID     uint           `json:"domain_id" gorm:"not null;index"`
	Text         string         `json:"text" gorm:"type:text;not null"`
	Points       int            `json:"points" gorm:"not null;default:1"`
	DisplayOrder int            `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
