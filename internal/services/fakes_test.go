package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

// fakeRepo is an in-memory repositories.Repository for service tests
type fakeRepo struct {
	mu sync.Mutex

	tests       map[uint]*models.Test
	questions   map[uint]*models.Question
	results     map[uint]*models.Result
	records     []*models.AnswerRecord
	botResults  []*models.BotResult
	invitations map[string]*models.Invitation
	profiles    map[string]*models.Profile
	users       map[string]*models.User
	superusers  map[string]bool

	// questionCache keeps what GetByID served, like the redis question cache
	questionCache map[uint]*models.Question

	nextID uint

	// failRecords makes the next n CreateAnswerRecords calls fail
	failRecords int
	deleted     []uint
	// markHook runs inside MarkCompleted before the completion check
	markHook func(inv *models.Invitation)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tests:       map[uint]*models.Test{},
		questions:   map[uint]*models.Question{},
		results:     map[uint]*models.Result{},
		invitations: map[string]*models.Invitation{},
		profiles:    map[string]*models.Profile{},
		users:       map[string]*models.User{},
		superusers:  map[string]bool{},

		questionCache: map[uint]*models.Question{},
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) Test() repositories.TestRepository             { return fakeTests{f} }
func (f *fakeRepo) Question() repositories.QuestionRepository     { return fakeQuestions{f} }
func (f *fakeRepo) Result() repositories.ResultRepository         { return fakeResults{f} }
func (f *fakeRepo) BotResult() repositories.BotResultRepository   { return fakeBotResults{f} }
func (f *fakeRepo) Invitation() repositories.InvitationRepository { return fakeInvitations{f} }
func (f *fakeRepo) Profile() repositories.ProfileRepository       { return fakeProfiles{f} }
func (f *fakeRepo) User() repositories.UserRepository             { return fakeUsers{f} }
func (f *fakeRepo) Dashboard() repositories.DashboardRepository   { return nil }

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

// addTest stores a test with n single-choice questions. Option 0 of every question is correct.
func (f *fakeRepo) addTest(test *models.Test, n int, category models.Category) []*models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()

	test.ID = f.id()
	if test.QuestionsCount == 0 {
		test.QuestionsCount = n
	}
	if test.Kind == "" {
		test.Kind = models.TestKindIQ
	}
	if test.Audience == "" {
		test.Audience = models.AudienceGeneral
	}
	f.tests[test.ID] = test

	out := make([]*models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := &models.Question{
			ID:       f.id(),
			TestID:   test.ID,
			Text:     "question",
			Category: category,
			Order:    i,
		}
		for j, text := range []string{"right", "wrong a", "wrong b"} {
			q.Answers = append(q.Answers, models.Answer{
				ID:         f.id(),
				QuestionID: q.ID,
				Text:       text,
				IsCorrect:  j == 0,
			})
		}
		f.questions[q.ID] = q
		out = append(out, q)
	}
	return out
}

func (f *fakeRepo) recordsFor(resultID uint) []*models.AnswerRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.AnswerRecord
	for _, r := range f.records {
		if r.ResultID == resultID {
			out = append(out, r)
		}
	}
	return out
}

// ===== TESTS =====

type fakeTests struct{ f *fakeRepo }

func (r fakeTests) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	test.ID = r.f.id()
	r.f.tests[test.ID] = test
	return nil
}

func (r fakeTests) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	t, ok := r.f.tests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return t, nil
}

func (r fakeTests) GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, t := range r.f.tests {
		if t.Title == title {
			return t, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeTests) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Test
	for _, t := range r.f.tests {
		if filters.Audience != nil && t.Audience != *filters.Audience {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeTests) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.tests[test.ID] = test
	return nil
}

// ===== QUESTIONS =====

type fakeQuestions struct{ f *fakeRepo }

func (r fakeQuestions) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	q.ID = r.f.id()
	for i := range q.Answers {
		q.Answers[i].ID = r.f.id()
		q.Answers[i].QuestionID = q.ID
	}
	r.f.questions[q.ID] = q
	return nil
}

func (r fakeQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if q, ok := r.f.questionCache[id]; ok {
		return q, nil
	}
	q, ok := r.f.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	r.f.questionCache[id] = q
	return q, nil
}

func (r fakeQuestions) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Question
	for _, id := range ids {
		if q, ok := r.f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r fakeQuestions) ListIDsByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]uint, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var ids []uint
	for _, q := range r.f.questions {
		if q.TestID == testID {
			ids = append(ids, q.ID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r fakeQuestions) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	ids, _ := r.ListIDsByTest(ctx, tx, testID)
	return int64(len(ids)), nil
}

func (r fakeQuestions) NextOrder(ctx context.Context, tx *gorm.DB, testID uint) (int, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	next := 0
	for _, q := range r.f.questions {
		if q.TestID == testID && q.Order >= next {
			next = q.Order + 1
		}
	}
	return next, nil
}

func (r fakeQuestions) GetRandomByCategory(ctx context.Context, tx *gorm.DB, filters repositories.RandomQuestionFilters) (*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var pool, all []*models.Question
	for _, q := range r.f.questions {
		if q.Category != filters.Category {
			continue
		}
		all = append(all, q)
		if !slices.Contains(filters.ExcludeIDs, q.ID) {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		pool = all
	}
	if len(pool) == 0 {
		return nil, repositories.ErrNotFound
	}
	return pool[rand.IntN(len(pool))], nil
}

func (r fakeQuestions) GetAnswerByID(ctx context.Context, tx *gorm.DB, answerID uint) (*models.Answer, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, q := range r.f.questions {
		if a, ok := q.FindAnswer(answerID); ok {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// ===== RESULTS =====

type fakeResults struct{ f *fakeRepo }

func (r fakeResults) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	result.ID = r.f.id()
	result.CreatedAt = time.Now()
	r.f.results[result.ID] = result
	return nil
}

func (r fakeResults) CreateAnswerRecords(ctx context.Context, tx *gorm.DB, records []*models.AnswerRecord) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.failRecords > 0 {
		r.f.failRecords--
		return errors.New("insert failed")
	}
	for _, rec := range records {
		rec.ID = r.f.id()
		r.f.records = append(r.f.records, rec)
	}
	return nil
}

func (r fakeResults) UpdateAnalysis(ctx context.Context, tx *gorm.DB, id uint, analysis *string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	res, ok := r.f.results[id]
	if !ok {
		return repositories.ErrNotFound
	}
	res.AIAnalysis = analysis
	return nil
}

func (r fakeResults) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.results[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.f.results, id)
	r.f.deleted = append(r.f.deleted, id)
	return nil
}

func (r fakeResults) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	res, ok := r.f.results[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if t, ok := r.f.tests[res.TestID]; ok {
		res.Test = *t
	}
	return res, nil
}

func (r fakeResults) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	res, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	res.Answers = nil
	for _, rec := range r.f.records {
		if rec.ResultID != id {
			continue
		}
		a := *rec
		if q, ok := r.f.questions[rec.QuestionID]; ok {
			a.Question = *q
			if rec.SelectedAnswerID != nil {
				a.SelectedAnswer, _ = q.FindAnswer(*rec.SelectedAnswerID)
			}
		}
		res.Answers = append(res.Answers, a)
	}
	return res, nil
}

func (r fakeResults) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Result
	for _, res := range r.f.results {
		if res.UserID != nil && *res.UserID == userID {
			if t, ok := r.f.tests[res.TestID]; ok {
				res.Test = *t
			}
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r fakeResults) FirstByUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Result, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var first *models.Result
	for _, res := range r.f.results {
		if res.UserID != nil && *res.UserID == userID && (first == nil || res.ID < first.ID) {
			first = res
		}
	}
	if first == nil {
		return nil, repositories.ErrNotFound
	}
	return first, nil
}

// ===== BOT RESULTS =====

type fakeBotResults struct{ f *fakeRepo }

func (r fakeBotResults) Create(ctx context.Context, tx *gorm.DB, result *models.BotResult) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	result.ID = r.f.id()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	r.f.botResults = append(r.f.botResults, result)
	return nil
}

func (r fakeBotResults) AnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, userID string) ([]uint, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var ids []uint
	for _, b := range r.f.botResults {
		if b.UserID == userID {
			ids = append(ids, b.QuestionID)
		}
	}
	return ids, nil
}

func (r fakeBotResults) CountSince(ctx context.Context, tx *gorm.DB, userID string, since time.Time) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, b := range r.f.botResults {
		if b.UserID == userID && !b.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ===== INVITATIONS =====

type fakeInvitations struct{ f *fakeRepo }

func (r fakeInvitations) Create(ctx context.Context, tx *gorm.DB, inv *models.Invitation) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	inv.ID = r.f.id()
	inv.CreatedAt = time.Now()
	r.f.invitations[inv.Token] = inv
	return nil
}

func (r fakeInvitations) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Invitation, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	inv, ok := r.f.invitations[token]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return inv, nil
}

func (r fakeInvitations) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Invitation
	for _, inv := range r.f.invitations {
		if inv.CreatedBy == creatorID {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r fakeInvitations) MarkCompleted(ctx context.Context, tx *gorm.DB, token string, resultID uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	inv, ok := r.f.invitations[token]
	if !ok {
		return repositories.ErrNotFound
	}
	if r.f.markHook != nil {
		r.f.markHook(inv)
	}
	if inv.IsCompleted {
		return repositories.ErrAlreadyConsumed
	}
	now := time.Now()
	inv.IsCompleted = true
	inv.CompletedAt = &now
	inv.ResultID = &resultID
	return nil
}

// ===== PROFILES =====

type fakeProfiles struct{ f *fakeRepo }

func (r fakeProfiles) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	p, ok := r.f.profiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (r fakeProfiles) GetByTelegramChatID(ctx context.Context, tx *gorm.DB, chatID string) (*models.Profile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, p := range r.f.profiles {
		if p.TelegramChatID != nil && *p.TelegramChatID == chatID {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeProfiles) GetByTelegramCode(ctx context.Context, tx *gorm.DB, code string) (*models.Profile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, p := range r.f.profiles {
		if p.TelegramCode != nil && *p.TelegramCode == code {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeProfiles) Save(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.profiles[profile.UserID] = profile
	return nil
}

func (r fakeProfiles) UpdateIQScore(ctx context.Context, tx *gorm.DB, userID string, score int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	p, ok := r.f.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID, Plan: models.PlanFree}
		r.f.profiles[userID] = p
	}
	p.IQScore = &score
	return nil
}

func (r fakeProfiles) LinkTelegram(ctx context.Context, tx *gorm.DB, userID string, chatID string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	p, ok := r.f.profiles[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.TelegramChatID = &chatID
	p.TelegramCode = nil
	return nil
}

// ===== USERS =====

type fakeUsers struct{ f *fakeRepo }

func (r fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r fakeUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := r.GetByID(ctx, id)
	return err == nil, nil
}

func (r fakeUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return u.Role == role, nil
}

func (r fakeUsers) IsSuperuser(ctx context.Context, id string) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.superusers[id], nil
}

// ===== GENERATORS =====

type stubGenerator struct {
	text  string
	err   error
	calls int
	last  models.ReportRequest
}

func (g *stubGenerator) Generate(ctx context.Context, req models.ReportRequest) (string, error) {
	g.calls++
	g.last = req
	return g.text, g.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
