package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/validator"
)

func TestProfile_GetSeedsFromDirectory(t *testing.T) {
	repo := newFakeRepo()
	repo.users["user-1"] = &models.User{ID: "user-1", Name: "aru", DisplayName: "Aru K.", Email: "aru@example.com"}
	svc := NewProfileService(repo, nil, discardLogger(), validator.New(), "@quiz_bot")

	resp, err := svc.Get(context.Background(), Viewer{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "Aru K.", resp.DisplayName)
	assert.Equal(t, "aru@example.com", resp.Email)
	assert.Equal(t, models.PlanFree, resp.Plan)
	assert.Equal(t, models.DefaultLanguage, resp.Language)
	assert.False(t, resp.TelegramLinked)

	_, err = svc.Get(context.Background(), Viewer{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestProfile_Update(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProfileService(repo, nil, discardLogger(), validator.New(), "")

	name, category, lang := " Dana ", "math", "kk"
	resp, err := svc.Update(context.Background(), Viewer{UserID: "user-2"}, &models.ProfileUpdateRequest{
		DisplayName: &name,
		BotCategory: &category,
		Language:    &lang,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", resp.DisplayName)
	assert.Equal(t, models.CategoryMath, resp.BotCategory)
	assert.Equal(t, "kk", resp.Language)
	assert.Equal(t, "kk", repo.profiles["user-2"].Language)

	bad := "fr"
	_, err = svc.Update(context.Background(), Viewer{UserID: "user-2"}, &models.ProfileUpdateRequest{Language: &bad})
	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestProfile_IssueTelegramCode(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProfileService(repo, nil, discardLogger(), validator.New(), "@quiz_bot")

	resp, err := svc.IssueTelegramCode(context.Background(), Viewer{UserID: "user-3"})
	require.NoError(t, err)
	assert.Len(t, resp.Code, telegramCodeLength)
	assert.Equal(t, strings.ToUpper(resp.Code), resp.Code)
	assert.Equal(t, "https://t.me/quiz_bot?start="+resp.Code, resp.BotLink)

	stored := repo.profiles["user-3"]
	require.NotNil(t, stored.TelegramCode)
	assert.Equal(t, resp.Code, *stored.TelegramCode)

	again, err := svc.IssueTelegramCode(context.Background(), Viewer{UserID: "user-3"})
	require.NoError(t, err)
	assert.Equal(t, again.Code, *repo.profiles["user-3"].TelegramCode)
}
