package model

import (
	"time"

	"gorm.io/gorm"
)

type Student struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `json:"name" gorm:"not null"`
	Email         string         `json:"email" gorm:"not null;uniqueIndex"`
	CreditBalance int            `json:"credit_balance" gorm:"not null;default:0;check:credit_balance >= 0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
