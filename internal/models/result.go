package models

import (
	"time"

	"gorm.io/datatypes"
)

type ResultAudience string

const (
	ResultAudienceUser      ResultAudience = "user"
	ResultAudienceRecruiter ResultAudience = "recruiter"
)

// Result is the persisted outcome of one completed attempt
type Result struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         *string        `json:"user_id" gorm:"size:255;index"` // nil for anonymous takers
	TestID         uint           `json:"test_id" gorm:"not null;index"`
	Score          int            `json:"score" gorm:"not null;default:0"`
	TotalQuestions int            `json:"total_questions" gorm:"not null;default:0"`
	CategoryStats  datatypes.JSON `json:"category_stats" gorm:"type:jsonb"` // map[label]int
	AIAnalysis     *string        `json:"ai_analysis" gorm:"type:text"`
	Audience       ResultAudience `json:"audience" gorm:"size:20;not null;default:user"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`

	Test    Test           `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Answers []AnswerRecord `json:"answers,omitempty" gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE"`
}

func (Result) TableName() string {
	return "results"
}

// IsAnonymous reports whether nobody was logged in when the result was created
func (r *Result) IsAnonymous() bool {
	return r.UserID == nil
}

// AnswerRecord stores what the taker chose for one question of the attempt
type AnswerRecord struct {
	ID               uint  `json:"id" gorm:"primaryKey"`
	ResultID         uint  `json:"result_id" gorm:"not null;index"`
	QuestionID       uint  `json:"question_id" gorm:"not null;index"`
	SelectedAnswerID *uint `json:"selected_answer_id"`
	IsCorrect        bool  `json:"is_correct" gorm:"not null;default:false"`

	Question       Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedAnswer *Answer  `json:"selected_answer,omitempty" gorm:"foreignKey:SelectedAnswerID"`
}

func (AnswerRecord) TableName() string {
	return "answer_records"
}

// BotResult is one answer given through the telegram bot
type BotResult struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"size:255;not null;index"`
	QuestionID uint      `json:"question_id" gorm:"not null;index"`
	IsCorrect  bool      `json:"is_correct"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (BotResult) TableName() string {
	return "bot_results"
}
