package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type ProfilePostgreSQL struct {
	db *gorm.DB
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &ProfilePostgreSQL{db: db}
}

func (p *ProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProfilePostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := p.getDB(tx).WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "profile", userID)
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) GetByTelegramChatID(ctx context.Context, tx *gorm.DB, chatID string) (*models.Profile, error) {
	var profile models.Profile
	if err := p.getDB(tx).WithContext(ctx).First(&profile, "telegram_chat_id = ?", chatID).Error; err != nil {
		return nil, notFound(err, "profile for chat", chatID)
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) GetByTelegramCode(ctx context.Context, tx *gorm.DB, code string) (*models.Profile, error) {
	var profile models.Profile
	if err := p.getDB(tx).WithContext(ctx).First(&profile, "telegram_code = ?", code).Error; err != nil {
		return nil, notFound(err, "profile for code", code)
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) Save(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	if err := p.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (p *ProfilePostgreSQL) UpdateIQScore(ctx context.Context, tx *gorm.DB, userID string, score int) error {
	if err := p.getDB(tx).WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("iq_score", score).Error; err != nil {
		return fmt.Errorf("failed to update iq score: %w", err)
	}
	return nil
}

// LinkTelegram moves the chat id onto this profile, unlinking any other
// profile that held it before.
func (p *ProfilePostgreSQL) LinkTelegram(ctx context.Context, tx *gorm.DB, userID string, chatID string) error {
	return p.getDB(tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).
			Where("telegram_chat_id = ? AND user_id <> ?", chatID, userID).
			Update("telegram_chat_id", nil).Error; err != nil {
			return fmt.Errorf("failed to unlink previous chat owner: %w", err)
		}
		if err := tx.Model(&models.Profile{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"telegram_chat_id": chatID,
				"telegram_code":    nil,
			}).Error; err != nil {
			return fmt.Errorf("failed to link telegram: %w", err)
		}
		return nil
	})
}
