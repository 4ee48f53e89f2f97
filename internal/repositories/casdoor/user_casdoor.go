package casdoor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// directory is the subset of the casdoor client used here
type directory interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client directory
	cache  *cache.CacheHelper
}

func NewUserCasdoor(config CasdoorConfig, cacheManager *cache.CacheManager) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return newUserCasdoor(client, cacheManager.User)
}

func newUserCasdoor(client directory, helper *cache.CacheHelper) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  helper,
	}
}

// ===== CONVERSION =====

// ConvertCasdoorUser maps a casdoor account onto the internal user model
func ConvertCasdoorUser(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	user := &models.User{
		ID:          casdoorUser.Id,
		Name:        casdoorUser.Name,
		DisplayName: casdoorUser.DisplayName,
		Email:       casdoorUser.Email,
		IsAdmin:     casdoorUser.IsAdmin,
		Role:        models.RoleUser,
	}

	for _, role := range casdoorUser.Roles {
		if role == nil {
			continue
		}
		switch strings.ToLower(role.Name) {
		case "admin", "administrator", "staff":
			user.Role = models.RoleAdmin
		}
	}
	if user.IsAdmin {
		user.Role = models.RoleAdmin
	}

	return user
}

// ===== READ OPERATIONS =====

// GetByID retrieves a user by ID, cached
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cache.CacheOrExecute(ctx, "id:"+id, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return ConvertCasdoorUser(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByIDs retrieves multiple users, skipping the ones that fail
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "Failed to resolve user", "user_id", id, "error", err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// ExistsByID checks if a user exists by ID
func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// HasRole checks if a user has a specific role
func (u *UserCasdoor) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}

// IsSuperuser reports whether the account is a casdoor administrator
func (u *UserCasdoor) IsSuperuser(ctx context.Context, id string) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
