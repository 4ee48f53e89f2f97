package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestAudience string

const (
	AudienceGeneral   TestAudience = "general"
	AudienceRecruiter TestAudience = "recruiter"
)

type TestKind string

const (
	TestKindIQ         TestKind = "iq"
	TestKindPsychology TestKind = "psychology"
)

const (
	DefaultQuestionsCount = 10
	DefaultLanguage       = "ru"
)

// SupportedLanguages lists the interface languages in display order
var SupportedLanguages = []string{"ru", "kk", "en"}

type Test struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	Title          string       `json:"title" gorm:"not null;size:200;uniqueIndex" validate:"required,min=1,max=200"`
	Description    string       `json:"description" gorm:"type:text"`
	Image          *string      `json:"image" gorm:"size:500"`
	QuestionsCount int          `json:"questions_count" gorm:"not null;default:10" validate:"min=1"`
	TimeLimit      int          `json:"time_limit" gorm:"not null;default:0" validate:"min=0"` // minutes, 0 = unlimited
	Audience       TestAudience `json:"audience" gorm:"size:20;not null;default:general;index"`
	Kind           TestKind     `json:"kind" gorm:"size:20;not null;default:iq"`

	// Per-language overrides keyed "title_kk", "description_en", ...
	Translations datatypes.JSONMap `json:"translations,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:TestID"`
}

func (Test) TableName() string {
	return "tests"
}

// IsRecruiterOnly reports whether the test is restricted to recruiters
func (t *Test) IsRecruiterOnly() bool {
	return t.Audience == AudienceRecruiter
}

// LocalizedTitle returns the title in lang, falling back to the base title
func (t *Test) LocalizedTitle(lang string) string {
	return localized(t.Translations, "title", lang, t.Title)
}

func (t *Test) LocalizedDescription(lang string) string {
	return localized(t.Translations, "description", lang, t.Description)
}

func localized(m datatypes.JSONMap, field, lang, base string) string {
	if m == nil || lang == "" {
		return base
	}
	if v, ok := m[field+"_"+lang].(string); ok && v != "" {
		return v
	}
	return base
}
