package services

import (
	"context"
	"io"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type TestService interface {
	List(ctx context.Context, viewer Viewer) ([]*models.TestSummary, error)
}

// AttemptService drives a client through a test one question at a time
type AttemptService interface {
	// Render shows the current question, starting a new attempt when none is in progress
	Render(ctx context.Context, testID uint, viewer Viewer) (*models.QuestionView, error)
	// Navigate applies next, prev or finish and returns the next view or the result id
	Navigate(ctx context.Context, testID uint, viewer Viewer, req *models.NavigateRequest) (*models.NavigateResponse, error)
	Reset(ctx context.Context, testID uint, viewer Viewer) error
}

type ResultService interface {
	GetByID(ctx context.Context, id uint, viewer Viewer) (*models.ResultView, error)
	ListMine(ctx context.Context, viewer Viewer, filters repositories.ResultFilters) ([]*models.ResultSummary, int64, error)
	RegenerateAnalysis(ctx context.Context, id uint, viewer Viewer) (*models.ResultView, error)
}

type ProfileService interface {
	Get(ctx context.Context, viewer Viewer) (*models.ProfileResponse, error)
	Update(ctx context.Context, viewer Viewer, req *models.ProfileUpdateRequest) (*models.ProfileResponse, error)
	IssueTelegramCode(ctx context.Context, viewer Viewer) (*models.TelegramCodeResponse, error)
}

type InvitationService interface {
	Create(ctx context.Context, viewer Viewer, req *models.InvitationCreateRequest) (*models.InvitationResponse, error)
	List(ctx context.Context, viewer Viewer, filters repositories.InvitationFilters) ([]*models.InvitationResponse, int64, error)
	Open(ctx context.Context, token string, client string) (*models.Invitation, error)
}

// BotService is the chat channel: linking, training questions and the daily quota
type BotService interface {
	LinkChat(ctx context.Context, code string, chatID string) (*models.Profile, error)
	ProfileForChat(ctx context.Context, chatID string) (*models.Profile, error)
	NextQuestion(ctx context.Context, chatID string) (*BotQuestion, error)
	Answer(ctx context.Context, chatID string, answerID uint) (*BotAnswerOutcome, error)
}

type ImportService interface {
	ParseRows(r io.Reader, format string) ([]models.ImportRow, []models.ImportRowError, error)
	Import(ctx context.Context, rows []models.ImportRow, opts models.ImportOptions) (*models.ImportReport, error)
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context, activeDays int) (*DashboardStatsResponse, error)
	GetActivityTrends(ctx context.Context, days int) ([]ActivityTrendResponse, error)
	GetQuestionDistribution(ctx context.Context, lang string) ([]QuestionDistributionResponse, error)
	GetCategoryAccuracy(ctx context.Context, lang string) ([]CategoryAccuracyResponse, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Test() TestService
	Attempt() AttemptService
	Result() ResultService
	Profile() ProfileService
	Invitation() InvitationService
	Bot() BotService
	Import() ImportService
	Dashboard() DashboardService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
