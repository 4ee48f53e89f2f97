package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/events"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/session"
	"github.com/brainmetric/quiz-service/internal/validator"
)

// AttemptServiceConfig carries the collaborators of the test-taking flow
type AttemptServiceConfig struct {
	Store     session.Store
	Gate      *AccessGate
	Generator ReportGenerator
	Publisher events.EventPublisher
	MediaURL  string
}

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator

	store     session.Store
	gate      *AccessGate
	generator ReportGenerator
	publisher events.EventPublisher
	mediaURL  string
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cfg AttemptServiceConfig) AttemptService {
	gate := cfg.Gate
	if gate == nil {
		gate = NewAccessGate(repo, db, logger)
	}
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		store:     cfg.Store,
		gate:      gate,
		generator: cfg.Generator,
		publisher: cfg.Publisher,
		mediaURL:  cfg.MediaURL,
	}
}

// attempt is everything a request needs once the test and the gate are resolved
type attempt struct {
	test       *models.Test
	viewer     Viewer
	key        session.Key
	invitation *models.Invitation
}

// ===== CORE OPERATIONS =====

func (s *attemptService) Render(ctx context.Context, testID uint, viewer Viewer) (*models.QuestionView, error) {
	a, err := s.enter(ctx, testID, viewer)
	if err != nil {
		return nil, err
	}

	state, err := s.loadOrInitialize(ctx, a)
	if err != nil {
		return nil, err
	}

	return s.render(ctx, a, state)
}

func (s *attemptService) Navigate(ctx context.Context, testID uint, viewer Viewer, req *models.NavigateRequest) (*models.NavigateResponse, error) {
	a, err := s.enter(ctx, testID, viewer)
	if err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx, a.key)
	if errors.Is(err, session.ErrNoState) {
		// nothing to navigate yet, start the attempt and show the first question
		state, err = s.initialize(ctx, a)
		if err != nil {
			return nil, err
		}
		return s.continueWith(ctx, a, state)
	}
	if err != nil {
		return nil, err
	}

	if state.Len() == 0 {
		if err := s.store.Clear(ctx, a.key); err != nil {
			return nil, err
		}
		if state, err = s.initialize(ctx, a); err != nil {
			return nil, err
		}
		return s.continueWith(ctx, a, state)
	}

	if !s.wellFormed(state, req) {
		s.logger.Warn("Malformed navigation, finishing attempt",
			"test_id", testID,
			"client", viewer.Client,
			"index", state.Index)
		return s.finish(ctx, a, state)
	}

	// a repeated submit from an earlier screen shows where the attempt really is
	if req.Index != nil && *req.Index != state.Index {
		s.logger.Debug("Stale navigation, re-rendering",
			"test_id", testID,
			"client", viewer.Client,
			"submitted", *req.Index,
			"index", state.Index)
		return s.continueWith(ctx, a, state)
	}

	question, err := s.currentQuestion(ctx, a, state)
	if err != nil {
		return nil, err
	}

	var selected *uint
	if req.SelectedAnswer != nil {
		if _, ok := question.FindAnswer(*req.SelectedAnswer); ok {
			selected = req.SelectedAnswer
		} else {
			s.logger.Warn("Ignoring answer of another question",
				"question_id", question.ID,
				"answer_id", *req.SelectedAnswer)
		}
	}
	state.RecordAnswer(selected, question.LocksBackNavigation())

	switch req.Action {
	case models.NavNext:
		if !state.Advance() {
			return s.finish(ctx, a, state)
		}
	case models.NavPrev:
		if !state.Retreat() {
			s.logger.Debug("Retreat blocked", "test_id", testID, "index", state.Index)
		}
	case models.NavFinish:
		return s.finish(ctx, a, state)
	}

	if err := s.store.Save(ctx, a.key, state); err != nil {
		return nil, err
	}
	return s.continueWith(ctx, a, state)
}

// Reset drops any attempt in progress for the viewer on the test
func (s *attemptService) Reset(ctx context.Context, testID uint, viewer Viewer) error {
	return s.store.Clear(ctx, session.Key{Client: viewer.Client, TestID: testID})
}

// ===== HELPERS =====

func (s *attemptService) enter(ctx context.Context, testID uint, viewer Viewer) (*attempt, error) {
	test, err := s.repo.Test().GetByID(ctx, s.db, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	invitation, err := s.activeInvitation(ctx, viewer.Client, testID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Check(ctx, test, viewer, invitation); err != nil {
		return nil, err
	}

	return &attempt{
		test:       test,
		viewer:     viewer,
		key:        session.Key{Client: viewer.Client, TestID: testID},
		invitation: invitation,
	}, nil
}

// activeInvitation returns the client's stashed invitation if it is usable for testID
func (s *attemptService) activeInvitation(ctx context.Context, client string, testID uint) (*models.Invitation, error) {
	token, err := s.store.ActiveInvitation(ctx, client)
	if err != nil || token == "" {
		return nil, err
	}

	invitation, err := s.repo.Invitation().GetByToken(ctx, s.db, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			_ = s.store.ClearActiveInvitation(ctx, client)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if !invitation.Usable() {
		_ = s.store.ClearActiveInvitation(ctx, client)
		return nil, nil
	}
	if invitation.TestID != testID {
		return nil, nil
	}
	return invitation, nil
}

func (s *attemptService) loadOrInitialize(ctx context.Context, a *attempt) (*session.State, error) {
	state, err := s.store.Load(ctx, a.key)
	switch {
	case errors.Is(err, session.ErrNoState):
		return s.initialize(ctx, a)
	case err != nil:
		return nil, err
	case !state.Valid():
		s.logger.Warn("Discarding corrupted session state", "test_id", a.test.ID, "client", a.viewer.Client)
		if err := s.store.Clear(ctx, a.key); err != nil {
			return nil, err
		}
		return s.initialize(ctx, a)
	}
	return state, nil
}

func (s *attemptService) initialize(ctx context.Context, a *attempt) (*session.State, error) {
	ids, err := s.repo.Question().ListIDsByTest(ctx, s.db, a.test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoQuestions
	}

	state := session.NewState(ids, a.test.QuestionsCount)
	if err := s.store.Save(ctx, a.key, state); err != nil {
		return nil, err
	}

	s.logger.Info("Attempt initialized",
		"test_id", a.test.ID,
		"client", a.viewer.Client,
		"user_id", a.viewer.UserID,
		"questions", state.Len(),
		"pool", len(ids))
	return state, nil
}

func (s *attemptService) wellFormed(state *session.State, req *models.NavigateRequest) bool {
	if req == nil || !state.Valid() {
		return false
	}
	if err := s.validator.Validate(req); err != nil {
		return false
	}
	if req.Index != nil && (*req.Index < 0 || *req.Index >= state.Len()) {
		return false
	}
	return true
}

// currentQuestion reads the question under the index past the question cache,
// so a question deleted from the bank is noticed on the next step
func (s *attemptService) currentQuestion(ctx context.Context, a *attempt, state *session.State) (*models.Question, error) {
	current, _ := state.Current()
	found, err := s.repo.Question().GetByIDs(ctx, s.db, []uint{current})
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if len(found) == 0 {
		return nil, s.questionVanished(ctx, a, current)
	}
	return found[0], nil
}

// questionVanished resets the attempt when a question vanished from the bank
func (s *attemptService) questionVanished(ctx context.Context, a *attempt, questionID uint) error {
	s.logger.Warn("Question vanished mid-attempt, resetting",
		"test_id", a.test.ID,
		"question_id", questionID,
		"client", a.viewer.Client)
	if clearErr := s.store.Clear(ctx, a.key); clearErr != nil {
		return clearErr
	}
	return ErrQuestionMissing
}

func (s *attemptService) continueWith(ctx context.Context, a *attempt, state *session.State) (*models.NavigateResponse, error) {
	view, err := s.render(ctx, a, state)
	if err != nil {
		return nil, err
	}
	return &models.NavigateResponse{Status: models.NavigateContinue, Question: view}, nil
}

func (s *attemptService) render(ctx context.Context, a *attempt, state *session.State) (*models.QuestionView, error) {
	question, err := s.currentQuestion(ctx, a, state)
	if err != nil {
		return nil, err
	}

	lang := s.language(ctx, a.viewer)

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

	view := &models.QuestionView{
		TestID:       a.test.ID,
		TestTitle:    a.test.LocalizedTitle(lang),
		QuestionID:   question.ID,
		Text:         question.LocalizedText(lang),
		ImageURL:     mediaLink(s.mediaURL, question.Image),
		Category:     question.Category,
		Options:      options,
		Index:        state.Index,
		Position:     state.Index + 1,
		Total:        state.Len(),
		CanGoBack:    state.CanRetreat(),
		IsLast:       state.IsLast(),
		TimeLimit:    a.test.TimeLimit,
		ExposureTime: question.ExposureTime,
		AnswerTime:   question.AnswerTime,
	}
	if selected, ok := state.Selected(question.ID); ok {
		view.SelectedAnswerID = &selected
	}

	return view, nil
}

// language prefers the profile setting, then the request, then the default
func (s *attemptService) language(ctx context.Context, viewer Viewer) string {
	if viewer.Authenticated() {
		if profile, err := loadProfile(ctx, s.repo, s.db, viewer.UserID); err == nil && profile != nil {
			return profile.Lang()
		}
	}
	for _, lang := range models.SupportedLanguages {
		if viewer.Language == lang {
			return lang
		}
	}
	return models.DefaultLanguage
}

// ===== FINALIZE =====

func (s *attemptService) finish(ctx context.Context, a *attempt, state *session.State) (*models.NavigateResponse, error) {
	resultID, err := s.finalize(ctx, a, state)
	if err != nil {
		return nil, err
	}
	return &models.NavigateResponse{Status: models.NavigateCompleted, ResultID: &resultID}, nil
}

func (s *attemptService) finalize(ctx context.Context, a *attempt, state *session.State) (uint, error) {
	s.logger.Info("Finalizing attempt",
		"test_id", a.test.ID,
		"client", a.viewer.Client,
		"user_id", a.viewer.UserID,
		"answered", len(state.Answers))

	found, err := s.repo.Question().GetByIDs(ctx, s.db, state.Order)
	if err != nil {
		return 0, fmt.Errorf("failed to load attempt questions: %w", err)
	}
	questions := make(map[uint]*models.Question, len(found))
	for _, q := range found {
		questions[q.ID] = q
	}

	lang := s.language(ctx, a.viewer)
	card := ScoreAttempt(state, questions, lang, a.test.Kind == models.TestKindPsychology)
	audience := resultAudience(a.test, a.invitation != nil)

	req := models.ReportRequest{
		UserName:        s.displayName(ctx, a),
		CategoryStats:   card.CategoryStats,
		Score:           card.Score,
		TotalQuestions:  card.TotalQuestions,
		TestKind:        a.test.Kind,
		Language:        lang,
		Audience:        audience,
		DetailedAnswers: card.DetailedAnswers,
	}
	analysis := narrate(ctx, s.generator, req, card.CategoryOrder, s.logger)

	result, err := s.persist(ctx, a, card, audience, &analysis)
	if err != nil {
		if errors.Is(err, ErrInvitationUsed) {
			return 0, err
		}
		s.logger.Warn("Saving result failed, retrying without analysis", "test_id", a.test.ID, "error", err)
		result, err = s.persist(ctx, a, card, audience, nil)
		if err != nil {
			s.logger.Error("Saving result failed twice", "test_id", a.test.ID, "error", err)
			return 0, fmt.Errorf("failed to save result: %w", err)
		}
	}

	if err := s.store.Clear(ctx, a.key); err != nil {
		s.logger.Error("Failed to clear session state", "result_id", result.ID, "error", err)
	}
	if a.invitation != nil {
		if err := s.store.ClearActiveInvitation(ctx, a.viewer.Client); err != nil {
			s.logger.Warn("Failed to clear active invitation", "error", err)
		}
	}

	if a.viewer.Authenticated() && a.test.Kind == models.TestKindIQ {
		if err := s.repo.Profile().UpdateIQScore(ctx, s.db, a.viewer.UserID, card.Score); err != nil {
			s.logger.Warn("Failed to update iq score", "user_id", a.viewer.UserID, "error", err)
		}
	}

	s.publishFinalized(ctx, a, result)

	s.logger.Info("Attempt finalized",
		"result_id", result.ID,
		"test_id", a.test.ID,
		"score", result.Score,
		"total", result.TotalQuestions,
		"audience", audience)
	return result.ID, nil
}

// persist writes the result, its answer records and the invitation consumption atomically
func (s *attemptService) persist(ctx context.Context, a *attempt, card *Scorecard, audience models.ResultAudience, analysis *string) (*models.Result, error) {
	result := &models.Result{
		TestID:         a.test.ID,
		Score:          card.Score,
		TotalQuestions: card.TotalQuestions,
		CategoryStats:  card.StatsJSON(),
		AIAnalysis:     analysis,
		Audience:       audience,
	}
	if a.viewer.Authenticated() {
		userID := a.viewer.UserID
		result.UserID = &userID
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Result().Create(ctx, nil, result); err != nil {
			return err
		}

		records := make([]*models.AnswerRecord, 0, len(card.Records))
		for _, r := range card.Records {
			record := *r
			record.ResultID = result.ID
			records = append(records, &record)
		}
		if err := txRepo.Result().CreateAnswerRecords(ctx, nil, records); err != nil {
			return err
		}

		if a.invitation != nil {
			if err := txRepo.Invitation().MarkCompleted(ctx, nil, a.invitation.Token, result.ID); err != nil {
				if errors.Is(err, repositories.ErrAlreadyConsumed) {
					return ErrInvitationUsed
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if result.ID != 0 {
			if delErr := s.repo.Result().Delete(ctx, s.db, result.ID); delErr != nil && !repositories.IsNotFoundError(delErr) {
				s.logger.Error("Failed to delete partial result", "result_id", result.ID, "error", delErr)
			}
		}
		return nil, err
	}

	return result, nil
}

func (s *attemptService) displayName(ctx context.Context, a *attempt) string {
	if a.viewer.Authenticated() {
		if profile, err := loadProfile(ctx, s.repo, s.db, a.viewer.UserID); err == nil && profile != nil && profile.DisplayName != "" {
			return profile.DisplayName
		}
		if user, err := s.repo.User().GetByID(ctx, a.viewer.UserID); err == nil {
			if name := user.PreferredName(); name != "" {
				return name
			}
		}
	}
	if a.viewer.Name != "" {
		return a.viewer.Name
	}
	if a.invitation != nil {
		if local, _, ok := strings.Cut(a.invitation.Email, "@"); ok {
			return local
		}
		return a.invitation.Email
	}
	return ""
}

func (s *attemptService) publishFinalized(ctx context.Context, a *attempt, result *models.Result) {
	if s.publisher == nil {
		return
	}
	event := &events.ResultFinalizedEvent{
		ResultID:       result.ID,
		TestID:         a.test.ID,
		TestTitle:      a.test.Title,
		UserID:         result.UserID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Audience:       string(result.Audience),
		OccurredAt:     time.Now().UTC(),
	}
	if a.invitation != nil {
		token := a.invitation.Token
		event.InvitationToken = &token
	}
	if err := s.publisher.PublishResultFinalized(ctx, event); err != nil {
		s.logger.Warn("Failed to publish result event", "result_id", result.ID, "error", err)
	}
}

// mediaLink joins the public media prefix and a stored relative path
func mediaLink(base string, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	if strings.HasPrefix(*path, "http://") || strings.HasPrefix(*path, "https://") {
		return path
	}
	link := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(*path, "/")
	return &link
}
