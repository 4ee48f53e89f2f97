package repositories

import (
	"context"

	"github.com/brainmetric/quiz-service/internal/models"
)

// UserRepository is the read-only view of the identity directory
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
	IsSuperuser(ctx context.Context, id string) (bool, error)
}
