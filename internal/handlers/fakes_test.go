package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/utils"
)

func discardLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeTokens stands in for casdoor JWT verification
func fakeTokens(token string) (*casdoorsdk.Claims, error) {
	switch token {
	case "user-token":
		return &casdoorsdk.Claims{User: casdoorsdk.User{Id: "u1", Name: "alice", DisplayName: "Alice", Email: "alice@example.com"}}, nil
	case "admin-token":
		return &casdoorsdk.Claims{User: casdoorsdk.User{Id: "a1", Name: "root", IsAdmin: true}}, nil
	}
	return nil, io.ErrUnexpectedEOF
}

type fakeServices struct {
	mu      sync.Mutex
	viewers []services.Viewer

	tests       *fakeTests
	attempts    *fakeAttempts
	results     *fakeResults
	profiles    *fakeProfiles
	invitations *fakeInvitations
	dashboard   *fakeDashboard
	healthErr   error
}

func newFakeServices() *fakeServices {
	f := &fakeServices{}
	f.tests = &fakeTests{f: f}
	f.attempts = &fakeAttempts{f: f}
	f.results = &fakeResults{f: f}
	f.profiles = &fakeProfiles{f: f}
	f.invitations = &fakeInvitations{f: f}
	f.dashboard = &fakeDashboard{}
	return f
}

func (f *fakeServices) saw(v services.Viewer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewers = append(f.viewers, v)
}

func (f *fakeServices) lastViewer() services.Viewer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.viewers) == 0 {
		return services.Viewer{}
	}
	return f.viewers[len(f.viewers)-1]
}

func (f *fakeServices) Test() services.TestService             { return f.tests }
func (f *fakeServices) Attempt() services.AttemptService       { return f.attempts }
func (f *fakeServices) Result() services.ResultService         { return f.results }
func (f *fakeServices) Profile() services.ProfileService       { return f.profiles }
func (f *fakeServices) Invitation() services.InvitationService { return f.invitations }
func (f *fakeServices) Bot() services.BotService               { return nil }
func (f *fakeServices) Import() services.ImportService         { return nil }
func (f *fakeServices) Dashboard() services.DashboardService   { return f.dashboard }

func (f *fakeServices) Initialize(ctx context.Context) error  { return nil }
func (f *fakeServices) HealthCheck(ctx context.Context) error { return f.healthErr }
func (f *fakeServices) Shutdown(ctx context.Context) error    { return nil }

type fakeTests struct {
	f    *fakeServices
	list []*models.TestSummary
}

func (t *fakeTests) List(ctx context.Context, viewer services.Viewer) ([]*models.TestSummary, error) {
	t.f.saw(viewer)
	return t.list, nil
}

type fakeAttempts struct {
	f        *fakeServices
	render   func(testID uint) (*models.QuestionView, error)
	navigate func(testID uint, req *models.NavigateRequest) (*models.NavigateResponse, error)
	reset    []uint
}

func (a *fakeAttempts) Render(ctx context.Context, testID uint, viewer services.Viewer) (*models.QuestionView, error) {
	a.f.saw(viewer)
	return a.render(testID)
}

func (a *fakeAttempts) Navigate(ctx context.Context, testID uint, viewer services.Viewer, req *models.NavigateRequest) (*models.NavigateResponse, error) {
	a.f.saw(viewer)
	return a.navigate(testID, req)
}

func (a *fakeAttempts) Reset(ctx context.Context, testID uint, viewer services.Viewer) error {
	a.f.saw(viewer)
	a.reset = append(a.reset, testID)
	return nil
}

type fakeResults struct {
	f       *fakeServices
	results map[uint]*models.ResultView
	filters repositories.ResultFilters
}

func (r *fakeResults) GetByID(ctx context.Context, id uint, viewer services.Viewer) (*models.ResultView, error) {
	r.f.saw(viewer)
	result, ok := r.results[id]
	if !ok {
		return nil, services.ErrResultNotFound
	}
	return result, nil
}

func (r *fakeResults) ListMine(ctx context.Context, viewer services.Viewer, filters repositories.ResultFilters) ([]*models.ResultSummary, int64, error) {
	r.f.saw(viewer)
	r.filters = filters
	return []*models.ResultSummary{{ID: 1, TestID: 2, Score: 3}}, 1, nil
}

func (r *fakeResults) RegenerateAnalysis(ctx context.Context, id uint, viewer services.Viewer) (*models.ResultView, error) {
	r.f.saw(viewer)
	return r.GetByID(ctx, id, viewer)
}

type fakeProfiles struct {
	f *fakeServices
}

func (p *fakeProfiles) Get(ctx context.Context, viewer services.Viewer) (*models.ProfileResponse, error) {
	p.f.saw(viewer)
	return &models.ProfileResponse{UserID: viewer.UserID, DisplayName: viewer.Name, Plan: models.PlanFree}, nil
}

func (p *fakeProfiles) Update(ctx context.Context, viewer services.Viewer, req *models.ProfileUpdateRequest) (*models.ProfileResponse, error) {
	p.f.saw(viewer)
	if req.Language != nil && *req.Language == "fr" {
		return nil, services.ValidationErrors{{Field: "language", Message: "is not supported", Rule: "language"}}
	}
	return &models.ProfileResponse{UserID: viewer.UserID, Language: *req.Language}, nil
}

func (p *fakeProfiles) IssueTelegramCode(ctx context.Context, viewer services.Viewer) (*models.TelegramCodeResponse, error) {
	p.f.saw(viewer)
	return &models.TelegramCodeResponse{Code: "ABC123"}, nil
}

type fakeInvitations struct {
	f       *fakeServices
	opened  map[string]*models.Invitation
	used    map[string]bool
	created []*models.InvitationCreateRequest
	clients []string
}

func (i *fakeInvitations) Create(ctx context.Context, viewer services.Viewer, req *models.InvitationCreateRequest) (*models.InvitationResponse, error) {
	i.f.saw(viewer)
	i.created = append(i.created, req)
	return &models.InvitationResponse{ID: 1, TestID: req.TestID, Email: req.Email, Token: "tok"}, nil
}

func (i *fakeInvitations) List(ctx context.Context, viewer services.Viewer, filters repositories.InvitationFilters) ([]*models.InvitationResponse, int64, error) {
	i.f.saw(viewer)
	return nil, 0, nil
}

func (i *fakeInvitations) Open(ctx context.Context, token string, client string) (*models.Invitation, error) {
	i.clients = append(i.clients, client)
	if i.used[token] {
		return nil, services.ErrInvitationUsed
	}
	inv, ok := i.opened[token]
	if !ok {
		return nil, services.ErrInvitationNotFound
	}
	return inv, nil
}

type fakeDashboard struct {
	days []int
}

func (d *fakeDashboard) GetDashboardStats(ctx context.Context, activeDays int) (*services.DashboardStatsResponse, error) {
	d.days = append(d.days, activeDays)
	return &services.DashboardStatsResponse{}, nil
}

func (d *fakeDashboard) GetActivityTrends(ctx context.Context, days int) ([]services.ActivityTrendResponse, error) {
	d.days = append(d.days, days)
	return []services.ActivityTrendResponse{}, nil
}

func (d *fakeDashboard) GetQuestionDistribution(ctx context.Context, lang string) ([]services.QuestionDistributionResponse, error) {
	return []services.QuestionDistributionResponse{}, nil
}

func (d *fakeDashboard) GetCategoryAccuracy(ctx context.Context, lang string) ([]services.CategoryAccuracyResponse, error) {
	return []services.CategoryAccuracyResponse{}, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// unlinkedBot knows no chats
type unlinkedBot struct{}

func (unlinkedBot) LinkChat(ctx context.Context, code, chatID string) (*models.Profile, error) {
	return nil, services.ErrInvalidLinkCode
}

func (unlinkedBot) ProfileForChat(ctx context.Context, chatID string) (*models.Profile, error) {
	return nil, services.ErrChatNotLinked
}

func (unlinkedBot) NextQuestion(ctx context.Context, chatID string) (*services.BotQuestion, error) {
	return nil, services.ErrChatNotLinked
}

func (unlinkedBot) Answer(ctx context.Context, chatID string, answerID uint) (*services.BotAnswerOutcome, error) {
	return nil, services.ErrChatNotLinked
}
