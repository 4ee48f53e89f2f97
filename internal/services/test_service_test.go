package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/models"
)

func TestTestCatalogue_HidesRecruiterTests(t *testing.T) {
	repo := newFakeRepo()
	repo.addTest(&models.Test{Title: "IQ", Translations: datatypes.JSONMap{"title_en": "IQ test"}}, 1, models.CategoryLogic)
	repo.addTest(&models.Test{Title: "Hiring", Audience: models.AudienceRecruiter}, 1, models.CategoryLogic)
	repo.profiles["hr"] = &models.Profile{UserID: "hr", Plan: models.PlanHR, Language: "en"}
	svc := NewTestService(repo, nil, discardLogger(), nil, "/media")

	list, err := svc.List(context.Background(), Viewer{Client: "anon"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "IQ", list[0].Title)

	list, err = svc.List(context.Background(), Viewer{UserID: "hr"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "IQ test", list[0].Title)

	list, err = svc.List(context.Background(), Viewer{UserID: "staff", IsSuperuser: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTestCatalogue_CachedUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	manager := cache.NewCacheManager(client)

	repo := newFakeRepo()
	first := &models.Test{Title: "First"}
	repo.addTest(first, 1, models.CategoryLogic)
	svc := NewTestService(repo, nil, discardLogger(), manager.Test, "")
	ctx := context.Background()

	list, err := svc.List(ctx, Viewer{Client: "c"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists("test:list"))

	repo.addTest(&models.Test{Title: "Second"}, 1, models.CategoryLogic)
	list, err = svc.List(ctx, Viewer{Client: "c"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	manager.InvalidateTest(ctx, first.ID)
	list, err = svc.List(ctx, Viewer{Client: "c"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
