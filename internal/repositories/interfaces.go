package repositories

import (
	"github.com/brainmetric/quiz-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	Audience *models.TestAudience `json:"audience"`
	Kind     *models.TestKind     `json:"kind"`
}

type RandomQuestionFilters struct {
	Category   models.Category `json:"category"`
	ExcludeIDs []uint          `json:"exclude_ids"`
}

type ResultFilters struct {
	TestID *uint `json:"test_id"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type InvitationFilters struct {
	TestID      *uint `json:"test_id"`
	IsCompleted *bool `json:"is_completed"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
}
