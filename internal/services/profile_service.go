package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/validator"
)

const telegramCodeLength = 6

type profileService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	validator   *validator.Validator
	botUsername string
}

func NewProfileService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, botUsername string) ProfileService {
	return &profileService{
		repo:        repo,
		db:          db,
		logger:      logger,
		validator:   validator,
		botUsername: strings.TrimPrefix(botUsername, "@"),
	}
}

func (s *profileService) Get(ctx context.Context, viewer Viewer) (*models.ProfileResponse, error) {
	profile, err := s.getOrDefault(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

func (s *profileService) Update(ctx context.Context, viewer Viewer, req *models.ProfileUpdateRequest) (*models.ProfileResponse, error) {
	s.logger.Info("Updating profile", "user_id", viewer.UserID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.getOrDefault(ctx, viewer)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.BotCategory != nil {
		profile.BotCategory = models.Category(*req.BotCategory)
	}
	if req.Language != nil {
		profile.Language = *req.Language
	}

	if err := s.repo.Profile().Save(ctx, s.db, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", viewer.UserID)
	return toProfileResponse(profile), nil
}

// IssueTelegramCode stores a fresh one-time code the user sends to the bot with /start
func (s *profileService) IssueTelegramCode(ctx context.Context, viewer Viewer) (*models.TelegramCodeResponse, error) {
	profile, err := s.getOrDefault(ctx, viewer)
	if err != nil {
		return nil, err
	}

	code := newLinkCode()
	profile.TelegramCode = &code
	if err := s.repo.Profile().Save(ctx, s.db, profile); err != nil {
		return nil, fmt.Errorf("failed to save telegram code: %w", err)
	}

	resp := &models.TelegramCodeResponse{Code: code}
	if s.botUsername != "" {
		resp.BotLink = fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, code)
	}

	s.logger.Info("Telegram link code issued", "user_id", viewer.UserID)
	return resp, nil
}

// getOrDefault returns the stored profile or a new free one seeded from the directory
func (s *profileService) getOrDefault(ctx context.Context, viewer Viewer) (*models.Profile, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthenticated
	}

	profile, err := loadProfile(ctx, s.repo, s.db, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	profile = &models.Profile{
		UserID:      viewer.UserID,
		DisplayName: viewer.Name,
		Email:       viewer.Email,
		Plan:        models.PlanFree,
		BotCategory: models.CategoryLogic,
		Language:    models.DefaultLanguage,
	}
	if user, err := s.repo.User().GetByID(ctx, viewer.UserID); err == nil {
		if profile.DisplayName == "" {
			profile.DisplayName = user.PreferredName()
		}
		if profile.Email == "" {
			profile.Email = user.Email
		}
	}
	return profile, nil
}

func toProfileResponse(p *models.Profile) *models.ProfileResponse {
	return &models.ProfileResponse{
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		Email:          p.Email,
		Plan:           p.EffectivePlan(),
		IQScore:        p.IQScore,
		TelegramLinked: p.TelegramChatID != nil && *p.TelegramChatID != "",
		BotCategory:    p.BotCategory,
		Language:       p.Lang(),
	}
}

func newLinkCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:telegramCodeLength])
}
