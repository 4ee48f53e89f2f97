package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	if err := t.getDB(tx).WithContext(ctx).Create(test).Error; err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}

	cache.SafeDelete(ctx, t.cacheManager.Test, "list")
	return nil
}

// GetByID retrieves a test by ID with caching
func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &test, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		var dbTest models.Test
		if err := db.WithContext(ctx).First(&dbTest, id).Error; err != nil {
			return nil, notFound(err, "test", id)
		}
		return &dbTest, nil
	})
	if err != nil {
		return nil, err
	}

	return &test, nil
}

func (t *TestPostgreSQL) GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*models.Test, error) {
	var test models.Test
	if err := t.getDB(tx).WithContext(ctx).
		Where("title = ?", title).
		First(&test).Error; err != nil {
		return nil, notFound(err, "test", title)
	}
	return &test, nil
}

// List returns the catalogue. Unfiltered listings are cached.
func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, error) {
	db := t.getDB(tx)

	fetch := func() (interface{}, error) {
		var tests []*models.Test
		query := db.WithContext(ctx).Model(&models.Test{})
		if filters.Audience != nil {
			query = query.Where("audience = ?", *filters.Audience)
		}
		if filters.Kind != nil {
			query = query.Where("kind = ?", *filters.Kind)
		}
		if err := query.Order("id ASC").Find(&tests).Error; err != nil {
			return nil, fmt.Errorf("failed to list tests: %w", err)
		}
		return tests, nil
	}

	if filters.Audience != nil || filters.Kind != nil {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.([]*models.Test), nil
	}

	var tests []*models.Test
	if err := t.cacheManager.Test.CacheOrExecute(ctx, "list", &tests, cache.TestCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return tests, nil
}

func (t *TestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	if err := t.getDB(tx).WithContext(ctx).Save(test).Error; err != nil {
		return fmt.Errorf("failed to update test: %w", err)
	}

	t.cacheManager.InvalidateTest(ctx, test.ID)
	return nil
}
