package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
)

// ProfileRepository interface for local per-user settings
type ProfileRepository interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error)
	GetByTelegramChatID(ctx context.Context, tx *gorm.DB, chatID string) (*models.Profile, error)
	GetByTelegramCode(ctx context.Context, tx *gorm.DB, code string) (*models.Profile, error)

	// Save inserts or updates the whole profile
	Save(ctx context.Context, tx *gorm.DB, profile *models.Profile) error
	UpdateIQScore(ctx context.Context, tx *gorm.DB, userID string, score int) error
	// LinkTelegram sets the chat id and clears the one-time code
	LinkTelegram(ctx context.Context, tx *gorm.DB, userID string, chatID string) error
}
