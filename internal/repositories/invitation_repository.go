package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
)

// InvitationRepository interface for recruiter invitations
type InvitationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Invitation, error)
	ListByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters InvitationFilters) ([]*models.Invitation, int64, error)

	// MarkCompleted flips is_completed only if it is still false.
	// Returns ErrAlreadyConsumed when another attempt got there first.
	MarkCompleted(ctx context.Context, tx *gorm.DB, token string, resultID uint) error
}
