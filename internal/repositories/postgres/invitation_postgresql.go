package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type InvitationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewInvitationPostgreSQL(db *gorm.DB) repositories.InvitationRepository {
	return &InvitationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (i *InvitationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return i.db
}

func (i *InvitationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error {
	if err := i.getDB(tx).WithContext(ctx).Omit("Test", "Result").Create(invitation).Error; err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (i *InvitationPostgreSQL) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := i.getDB(tx).WithContext(ctx).
		Preload("Test").
		Where("token = ?", token).
		First(&invitation).Error; err != nil {
		return nil, notFound(err, "invitation", token)
	}
	return &invitation, nil
}

func (i *InvitationPostgreSQL) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error) {
	query := i.getDB(tx).WithContext(ctx).
		Model(&models.Invitation{}).
		Where("created_by = ?", creatorID)
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filters.IsCompleted)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	var invitations []*models.Invitation
	if err := i.helpers.ApplyPagination(query.Preload("Test").Preload("Result").Order("created_at DESC"), filters.Limit, filters.Offset).
		Find(&invitations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invitations: %w", err)
	}

	return invitations, total, nil
}

func (i *InvitationPostgreSQL) MarkCompleted(ctx context.Context, tx *gorm.DB, token string, resultID uint) error {
	now := time.Now()
	res := i.getDB(tx).WithContext(ctx).
		Model(&models.Invitation{}).
		Where("token = ? AND is_completed = ?", token, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"result_id":    resultID,
			"completed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete invitation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invitation %s: %w", token, repositories.ErrAlreadyConsumed)
	}
	return nil
}
