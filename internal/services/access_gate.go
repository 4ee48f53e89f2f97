package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

// Viewer is the caller of a service method. An empty UserID is an anonymous visitor.
type Viewer struct {
	UserID      string
	Name        string
	Email       string
	IsSuperuser bool
	// Client identifies the browser session the attempt state belongs to
	Client   string
	Language string
}

func (v Viewer) Authenticated() bool {
	return v.UserID != ""
}

// AccessGate decides whether a viewer may enter a test
type AccessGate struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewAccessGate(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) *AccessGate {
	return &AccessGate{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// Check applies the entry rules in order. A usable invitation for this test skips all of them.
func (g *AccessGate) Check(ctx context.Context, test *models.Test, viewer Viewer, invitation *models.Invitation) error {
	if invitation.Usable() && invitation.TestID == test.ID {
		return nil
	}

	if test.IsRecruiterOnly() && !viewer.Authenticated() {
		return &LoginRequiredError{TestID: test.ID}
	}

	if !viewer.Authenticated() {
		return nil
	}

	profile, err := loadProfile(ctx, g.repo, g.db, viewer.UserID)
	if err != nil {
		return err
	}
	plan := profile.EffectivePlan()

	if test.IsRecruiterOnly() && plan != models.PlanHR && !viewer.IsSuperuser {
		return &SubscriptionRequiredError{
			TestID:       test.ID,
			RequiredPlan: models.PlanHR,
			Reason:       "recruiter tests need the hr plan",
		}
	}

	if plan == models.PlanFree && !viewer.IsSuperuser {
		first, err := g.repo.Result().FirstByUser(ctx, g.db, viewer.UserID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get first result: %w", err)
		}
		if first != nil && first.TestID != test.ID {
			g.logger.Info("Free plan limited to first test",
				"user_id", viewer.UserID,
				"test_id", test.ID,
				"allowed_test_id", first.TestID)
			return &SubscriptionRequiredError{
				TestID:       test.ID,
				RequiredPlan: models.PlanPremium,
				Reason:       "the free plan includes one test",
			}
		}
	}

	return nil
}

// loadProfile returns nil without error when the user has no profile yet
func loadProfile(ctx context.Context, repo repositories.Repository, db *gorm.DB, userID string) (*models.Profile, error) {
	profile, err := repo.Profile().GetByUserID(ctx, db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}
