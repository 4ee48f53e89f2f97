package models

import (
	"time"
)

// ===== TEST TAKING =====

type NavAction string

const (
	NavNext   NavAction = "next"
	NavPrev   NavAction = "prev"
	NavFinish NavAction = "finish"
)

type NavigateRequest struct {
	Action         NavAction `json:"action" form:"action" validate:"required,nav_action"`
	SelectedAnswer *uint     `json:"selected_answer" form:"selected_answer"`
	// Index the client believes it is on. Out of range finishes the attempt,
	// a stale in-range value re-renders the current question.
	Index *int `json:"index" form:"index"`
}

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// QuestionView is everything the client needs to draw the current question
type QuestionView struct {
	TestID           uint         `json:"test_id"`
	TestTitle        string       `json:"test_title"`
	QuestionID       uint         `json:"question_id"`
	Text             string       `json:"text"`
	ImageURL         *string      `json:"image_url,omitempty"`
	Category         Category     `json:"category"`
	Options          []OptionView `json:"options"`
	SelectedAnswerID *uint        `json:"selected_answer_id,omitempty"`
	Index            int          `json:"index"`
	Position         int          `json:"position"` // 1-based
	Total            int          `json:"total"`
	CanGoBack        bool         `json:"can_go_back"`
	IsLast           bool         `json:"is_last"`
	TimeLimit        int          `json:"time_limit"`
	ExposureTime     int          `json:"exposure_time"`
	AnswerTime       int          `json:"answer_time"`
}

type NavigateStatus string

const (
	NavigateContinue  NavigateStatus = "continue"
	NavigateCompleted NavigateStatus = "completed"
)

type NavigateResponse struct {
	Status   NavigateStatus `json:"status"`
	Question *QuestionView  `json:"question,omitempty"`
	ResultID *uint          `json:"result_id,omitempty"`
}

type TestSummary struct {
	ID             uint         `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	ImageURL       *string      `json:"image_url,omitempty"`
	QuestionsCount int          `json:"questions_count"`
	TimeLimit      int          `json:"time_limit"`
	Audience       TestAudience `json:"audience"`
	Kind           TestKind     `json:"kind"`
}

// ===== RESULTS =====

type AnswerRecordView struct {
	QuestionID         uint    `json:"question_id"`
	QuestionText       string  `json:"question_text"`
	Category           string  `json:"category"`
	SelectedAnswerID   *uint   `json:"selected_answer_id"`
	SelectedAnswerText *string `json:"selected_answer_text"`
	CorrectAnswerText  *string `json:"correct_answer_text"`
	IsCorrect          bool    `json:"is_correct"`
}

type ResultView struct {
	ID                uint               `json:"id"`
	TestID            uint               `json:"test_id"`
	TestTitle         string             `json:"test_title"`
	Score             int                `json:"score"`
	TotalQuestions    int                `json:"total_questions"`
	CategoryStats     map[string]int     `json:"category_stats"`
	StrongestCategory *string            `json:"strongest_category,omitempty"`
	AIAnalysis        *string            `json:"ai_analysis"`
	Audience          ResultAudience     `json:"audience"`
	CreatedAt         time.Time          `json:"created_at"`
	Answers           []AnswerRecordView `json:"answers,omitempty"`
}

type ResultSummary struct {
	ID             uint      `json:"id"`
	TestID         uint      `json:"test_id"`
	TestTitle      string    `json:"test_title"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

// ===== INVITATIONS =====

type InvitationCreateRequest struct {
	TestID uint   `json:"test_id" validate:"required"`
	Email  string `json:"email" validate:"required,email,max=255"`
}

type InvitationResponse struct {
	ID          uint       `json:"id"`
	Token       string     `json:"token"`
	Link        string     `json:"link"`
	TestID      uint       `json:"test_id"`
	TestTitle   string     `json:"test_title"`
	Email       string     `json:"email"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ResultID    *uint      `json:"result_id,omitempty"`
	Score       *int       `json:"score,omitempty"`
	AIAnalysis  *string    `json:"ai_analysis,omitempty"`
}

// ===== PROFILE =====

type ProfileUpdateRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=150"`
	BotCategory *string `json:"bot_category" validate:"omitempty,bot_category"`
	Language    *string `json:"language" validate:"omitempty,language"`
}

type ProfileResponse struct {
	UserID         string   `json:"user_id"`
	DisplayName    string   `json:"display_name"`
	Email          string   `json:"email"`
	Plan           Plan     `json:"plan"`
	IQScore        *int     `json:"iq_score"`
	TelegramLinked bool     `json:"telegram_linked"`
	BotCategory    Category `json:"bot_category"`
	Language       string   `json:"language"`
}

type TelegramCodeResponse struct {
	Code    string `json:"code"`
	BotLink string `json:"bot_link,omitempty"`
}

// ===== IMPORT =====

// ImportRow is one question as read from a CSV or XLSX sheet
type ImportRow struct {
	Line          int
	Text          string
	Category      string
	ExposureTime  int
	AnswerTime    int
	ImageFilename string
	CorrectAnswer string
	WrongAnswers  []string
	// keyed like the column header: "text_kk", "correct_answer_en", "wrong_2_kk"
	Translations map[string]string
}

type ImportOptions struct {
	TestTitle      string
	Description    string
	QuestionsCount int
	TimeLimit      int
	Audience       TestAudience
	MediaRoot      string
}

type ImportRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportReport struct {
	TestID        uint             `json:"test_id"`
	TestTitle     string           `json:"test_title"`
	TestCreated   bool             `json:"test_created"`
	Created       int              `json:"created"`
	Skipped       int              `json:"skipped"`
	MissingImages []string         `json:"missing_images,omitempty"`
	Errors        []ImportRowError `json:"errors,omitempty"`
}

// ===== REPORT =====

type DetailedAnswer struct {
	Question       string `json:"question"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// ReportRequest is everything the narrative generator is told about an attempt
type ReportRequest struct {
	UserName        string           `json:"user_name"`
	CategoryStats   map[string]int   `json:"category_stats"`
	Score           int              `json:"score"`
	TotalQuestions  int              `json:"total_questions"`
	TestKind        TestKind         `json:"test_kind"`
	Language        string           `json:"language"`
	Audience        ResultAudience   `json:"audience"`
	DetailedAnswers []DetailedAnswer `json:"detailed_answers,omitempty"` // psychology tests only
}

// StrongestCategory returns the label with the most correct answers.
// Ties go to the label that comes first in order.
func StrongestCategory(stats map[string]int, order []string) (string, bool) {
	best, bestN := "", 0
	for _, label := range order {
		if n := stats[label]; n > bestN {
			best, bestN = label, n
		}
	}
	return best, bestN > 0
}
