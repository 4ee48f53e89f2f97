package models

import (
	"time"
)

// Invitation is a single-use link a recruiter sends to a candidate
type Invitation struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Token       string     `json:"token" gorm:"size:36;not null;uniqueIndex"`
	TestID      uint       `json:"test_id" gorm:"not null;index"`
	Email       string     `json:"email" gorm:"size:255;not null"`
	CreatedBy   string     `json:"created_by" gorm:"size:255;not null;index"`
	IsCompleted bool       `json:"is_completed" gorm:"not null;default:false"`
	ResultID    *uint      `json:"result_id"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Test   Test    `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Result *Result `json:"result,omitempty" gorm:"foreignKey:ResultID"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// Usable reports whether the invitation can still start an attempt
func (i *Invitation) Usable() bool {
	return i != nil && !i.IsCompleted
}
