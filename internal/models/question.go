package models

import (
	"time"

	"gorm.io/datatypes"
)

type Category string

const (
	CategoryLogic      Category = "logic"
	CategoryMath       Category = "math"
	CategorySpatial    Category = "spatial"
	CategoryMemory     Category = "memory"
	CategoryMultiTable Category = "multi_table"
	CategoryPsychology Category = "psychology"
)

var categoryLabels = map[Category]map[string]string{
	CategoryLogic:      {"ru": "Логика", "kk": "Логика", "en": "Logic"},
	CategoryMath:       {"ru": "Математика", "kk": "Математика", "en": "Math"},
	CategorySpatial:    {"ru": "Пространственное мышление", "kk": "Кеңістіктік ойлау", "en": "Spatial reasoning"},
	CategoryMemory:     {"ru": "Память", "kk": "Есте сақтау", "en": "Memory"},
	CategoryMultiTable: {"ru": "Таблица умножения", "kk": "Көбейту кестесі", "en": "Multiplication table"},
	CategoryPsychology: {"ru": "Психология", "kk": "Психология", "en": "Psychology"},
}

// Label is the human readable category name in lang
func (c Category) Label(lang string) string {
	labels, ok := categoryLabels[c]
	if !ok {
		return string(c)
	}
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[DefaultLanguage]
}

// IsKnownCategory reports whether c is one of the built-in categories
func IsKnownCategory(c string) bool {
	_, ok := categoryLabels[Category(c)]
	return ok
}

const DefaultAnswerTime = 60

type Question struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	TestID       uint     `json:"test_id" gorm:"not null;index"`
	Text         string   `json:"text" gorm:"type:text;not null" validate:"required"`
	Image        *string  `json:"image" gorm:"size:500"` // relative to the media root
	Category     Category `json:"category" gorm:"size:30;not null;default:logic;index"`
	Order        int      `json:"order" gorm:"column:sort_order;default:0"`
	ExposureTime int      `json:"exposure_time" gorm:"not null;default:0"`  // seconds, > 0 locks back navigation
	AnswerTime   int      `json:"answer_time" gorm:"not null;default:60"`   // seconds, advisory

	Translations datatypes.JSONMap `json:"translations,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) LocalizedText(lang string) string {
	return localized(q.Translations, "text", lang, q.Text)
}

// CorrectAnswerID returns the first option flagged correct, or 0
func (q *Question) CorrectAnswerID() uint {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a.ID
		}
	}
	return 0
}

// FindAnswer looks up an option of this question by id
func (q *Question) FindAnswer(id uint) (*Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].ID == id {
			return &q.Answers[i], true
		}
	}
	return nil, false
}

// LocksBackNavigation reports whether answering this question forbids going back
func (q *Question) LocksBackNavigation() bool {
	return q.ExposureTime > 0
}

type Answer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"size:500;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`

	Translations datatypes.JSONMap `json:"translations,omitempty" gorm:"type:jsonb"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) LocalizedText(lang string) string {
	return localized(a.Translations, "text", lang, a.Text)
}
