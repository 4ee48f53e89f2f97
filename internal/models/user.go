package models

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is the identity as seen by the directory (casdoor)
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	IsAdmin     bool     `json:"is_admin"`
}

// PreferredName is what reports and the bot address the user by
func (u *User) PreferredName() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanHR      Plan = "hr"
)

// Profile holds the local, per-user settings that casdoor does not know about
type Profile struct {
	UserID         string   `json:"user_id" gorm:"primaryKey;size:255"`
	DisplayName    string   `json:"display_name" gorm:"size:150"`
	Email          string   `json:"email" gorm:"size:255"`
	Plan           Plan     `json:"plan" gorm:"size:20;not null;default:free"`
	IQScore        *int     `json:"iq_score"`
	TelegramChatID *string  `json:"telegram_chat_id" gorm:"size:50;uniqueIndex"`
	TelegramCode   *string  `json:"-" gorm:"size:20;uniqueIndex"`
	BotCategory    Category `json:"bot_category" gorm:"size:30;not null;default:logic"`
	Language       string   `json:"language" gorm:"size:5;not null;default:ru"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// EffectivePlan treats a missing profile as the free plan
func (p *Profile) EffectivePlan() Plan {
	if p == nil || p.Plan == "" {
		return PlanFree
	}
	return p.Plan
}

// Lang returns the profile language or the default one
func (p *Profile) Lang() string {
	if p == nil || p.Language == "" {
		return DefaultLanguage
	}
	return p.Language
}

// HasUnlimitedBot reports whether the bot daily quota applies
func (p *Profile) HasUnlimitedBot() bool {
	plan := p.EffectivePlan()
	return plan == PlanPremium || plan == PlanHR
}
