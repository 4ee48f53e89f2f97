package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/validator"
)

// BotQuestion is a training question as sent to a chat
type BotQuestion struct {
	QuestionID uint
	Text       string
	Image      *string
	Category   models.Category
	Options    []models.OptionView
	Language   string
}

// BotAnswerOutcome is the verdict on one bot answer.
// Remaining is -1 for users without a daily limit.
type BotAnswerOutcome struct {
	Correct       bool
	CorrectAnswer string
	Remaining     int
	Language      string
}

type botService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	validator  *validator.Validator
	dailyLimit int
	now        func() time.Time
}

func NewBotService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, dailyLimit int) BotService {
	return &botService{
		repo:       repo,
		db:         db,
		logger:     logger,
		validator:  validator,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// LinkChat attaches a chat to the profile that holds code
func (s *botService) LinkChat(ctx context.Context, code string, chatID string) (*models.Profile, error) {
	if code == "" {
		return nil, ErrInvalidLinkCode
	}

	profile, err := s.repo.Profile().GetByTelegramCode(ctx, s.db, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidLinkCode
		}
		return nil, fmt.Errorf("failed to find link code: %w", err)
	}

	if err := s.repo.Profile().LinkTelegram(ctx, s.db, profile.UserID, chatID); err != nil {
		return nil, fmt.Errorf("failed to link telegram: %w", err)
	}
	profile.TelegramChatID = &chatID
	profile.TelegramCode = nil

	s.logger.Info("Telegram chat linked", "user_id", profile.UserID, "chat_id", chatID)
	return profile, nil
}

func (s *botService) ProfileForChat(ctx context.Context, chatID string) (*models.Profile, error) {
	profile, err := s.repo.Profile().GetByTelegramChatID(ctx, s.db, chatID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrChatNotLinked
		}
		return nil, fmt.Errorf("failed to get profile by chat: %w", err)
	}
	return profile, nil
}

// NextQuestion picks a question of the user's training category they have not answered yet.
// Once every question was answered any question of the category is used again.
func (s *botService) NextQuestion(ctx context.Context, chatID string) (*BotQuestion, error) {
	profile, err := s.ProfileForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	answered, err := s.repo.BotResult().AnsweredQuestionIDs(ctx, s.db, profile.UserID)
	if err != nil {
		return nil, err
	}

	category := profile.BotCategory
	if category == "" {
		category = models.CategoryLogic
	}

	question, err := s.repo.Question().GetRandomByCategory(ctx, s.db, repositories.RandomQuestionFilters{
		Category:   category,
		ExcludeIDs: answered,
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoQuestions
		}
		return nil, fmt.Errorf("failed to pick question: %w", err)
	}

	lang := profile.Lang()
	options := make([]models.OptionView, 0, len(question.Answers))
	for i := range question.Answers {
		options = append(options, models.OptionView{
			ID:   question.Answers[i].ID,
			Text: question.Answers[i].LocalizedText(lang),
		})
	}
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &BotQuestion{
		QuestionID: question.ID,
		Text:       question.LocalizedText(lang),
		Image:      question.Image,
		Category:   question.Category,
		Options:    options,
		Language:   lang,
	}, nil
}

// Answer records one bot answer after checking the daily quota
func (s *botService) Answer(ctx context.Context, chatID string, answerID uint) (*BotAnswerOutcome, error) {
	profile, err := s.ProfileForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	remaining := -1
	if !profile.HasUnlimitedBot() {
		used, err := s.repo.BotResult().CountSince(ctx, s.db, profile.UserID, startOfDay(s.now()))
		if err != nil {
			return nil, err
		}
		if int(used) >= s.dailyLimit {
			s.logger.Info("Bot daily limit reached", "user_id", profile.UserID, "used", used)
			return nil, ErrBotQuotaExceeded
		}
		remaining = s.dailyLimit - int(used) - 1
	}

	answer, err := s.repo.Question().GetAnswerByID(ctx, s.db, answerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	if err := s.repo.BotResult().Create(ctx, s.db, &models.BotResult{
		UserID:     profile.UserID,
		QuestionID: answer.QuestionID,
		IsCorrect:  answer.IsCorrect,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	lang := profile.Lang()
	outcome := &BotAnswerOutcome{
		Correct:   answer.IsCorrect,
		Remaining: remaining,
		Language:  lang,
	}
	if !answer.IsCorrect {
		if question, err := s.repo.Question().GetByID(ctx, s.db, answer.QuestionID); err == nil {
			if correct, ok := question.FindAnswer(question.CorrectAnswerID()); ok {
				outcome.CorrectAnswer = correct.LocalizedText(lang)
			}
		}
	}

	s.logger.Info("Bot answer recorded",
		"user_id", profile.UserID,
		"question_id", answer.QuestionID,
		"correct", answer.IsCorrect)
	return outcome, nil
}

// startOfDay is midnight UTC of t's calendar day
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
