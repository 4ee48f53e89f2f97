package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type testService struct {
	repo     repositories.Repository
	db       *gorm.DB
	logger   *slog.Logger
	cache    *cache.CacheHelper
	mediaURL string
}

func NewTestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, catalogue *cache.CacheHelper, mediaURL string) TestService {
	return &testService{
		repo:     repo,
		db:       db,
		logger:   logger,
		cache:    catalogue,
		mediaURL: mediaURL,
	}
}

// List returns the catalogue. Recruiter tests are only listed for hr users and staff.
func (s *testService) List(ctx context.Context, viewer Viewer) ([]*models.TestSummary, error) {
	lang := models.DefaultLanguage
	plan := models.PlanFree
	if viewer.Authenticated() {
		profile, err := loadProfile(ctx, s.repo, s.db, viewer.UserID)
		if err != nil {
			return nil, err
		}
		lang = profile.Lang()
		plan = profile.EffectivePlan()
	} else if viewer.Language != "" {
		lang = viewer.Language
	}

	tests, err := s.allTests(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.TestSummary, 0, len(tests))
	for _, t := range tests {
		if t.IsRecruiterOnly() && plan != models.PlanHR && !viewer.IsSuperuser {
			continue
		}
		out = append(out, &models.TestSummary{
			ID:             t.ID,
			Title:          t.LocalizedTitle(lang),
			Description:    t.LocalizedDescription(lang),
			ImageURL:       mediaLink(s.mediaURL, t.Image),
			QuestionsCount: t.QuestionsCount,
			TimeLimit:      t.TimeLimit,
			Audience:       t.Audience,
			Kind:           t.Kind,
		})
	}
	return out, nil
}

// allTests reads the catalogue through the cache. The importer drops the "list" key.
func (s *testService) allTests(ctx context.Context) ([]*models.Test, error) {
	fetch := func() (interface{}, error) {
		return s.repo.Test().List(ctx, s.db, repositories.TestFilters{})
	}

	if !s.cache.Available() {
		tests, err := s.repo.Test().List(ctx, s.db, repositories.TestFilters{})
		if err != nil {
			return nil, fmt.Errorf("failed to list tests: %w", err)
		}
		return tests, nil
	}

	var tests []*models.Test
	if err := s.cache.CacheOrExecute(ctx, "list", &tests, cache.TestCacheConfig.TTL, fetch); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}
