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
	"github.com/brainmetric/quiz-service/internal/session"
	"github.com/brainmetric/quiz-service/internal/validator"
)

type invitationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	store     session.Store
	publicURL string
}

func NewInvitationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, store session.Store, publicURL string) InvitationService {
	return &invitationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *invitationService) Create(ctx context.Context, viewer Viewer, req *models.InvitationCreateRequest) (*models.InvitationResponse, error) {
	s.logger.Info("Creating invitation", "test_id", req.TestID, "created_by", viewer.UserID)

	if err := s.requireRecruiter(ctx, viewer, req.TestID, "invite"); err != nil {
		return nil, err
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, s.db, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	invitation := &models.Invitation{
		Token:     uuid.NewString(),
		TestID:    test.ID,
		Email:     req.Email,
		CreatedBy: viewer.UserID,
	}
	if err := s.repo.Invitation().Create(ctx, s.db, invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	invitation.Test = *test

	s.logger.Info("Invitation created", "invitation_id", invitation.ID, "test_id", test.ID)
	return s.toResponse(invitation), nil
}

func (s *invitationService) List(ctx context.Context, viewer Viewer, filters repositories.InvitationFilters) ([]*models.InvitationResponse, int64, error) {
	if err := s.requireRecruiter(ctx, viewer, 0, "list"); err != nil {
		return nil, 0, err
	}

	invitations, total, err := s.repo.Invitation().ListByCreator(ctx, s.db, viewer.UserID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invitations: %w", err)
	}

	out := make([]*models.InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, s.toResponse(inv))
	}
	return out, total, nil
}

// Open stashes a usable invitation as the client's active one and returns it
func (s *invitationService) Open(ctx context.Context, token string, client string) (*models.Invitation, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrInvitationNotFound
	}

	invitation, err := s.repo.Invitation().GetByToken(ctx, s.db, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if !invitation.Usable() {
		return nil, ErrInvitationUsed
	}

	if err := s.store.SetActiveInvitation(ctx, client, invitation.Token); err != nil {
		return nil, fmt.Errorf("failed to store invitation: %w", err)
	}

	s.logger.Info("Invitation opened", "invitation_id", invitation.ID, "test_id", invitation.TestID)
	return invitation, nil
}

func (s *invitationService) requireRecruiter(ctx context.Context, viewer Viewer, resourceID uint, action string) error {
	if !viewer.Authenticated() {
		return ErrUnauthenticated
	}
	if viewer.IsSuperuser {
		return nil
	}
	profile, err := loadProfile(ctx, s.repo, s.db, viewer.UserID)
	if err != nil {
		return err
	}
	if profile.EffectivePlan() != models.PlanHR {
		return NewPermissionError(viewer.UserID, resourceID, "invitation", action, "hr plan required")
	}
	return nil
}

func (s *invitationService) toResponse(inv *models.Invitation) *models.InvitationResponse {
	resp := &models.InvitationResponse{
		ID:          inv.ID,
		Token:       inv.Token,
		Link:        fmt.Sprintf("%s/api/v1/invitations/%s", s.publicURL, inv.Token),
		TestID:      inv.TestID,
		TestTitle:   inv.Test.Title,
		Email:       inv.Email,
		IsCompleted: inv.IsCompleted,
		CreatedAt:   inv.CreatedAt,
		CompletedAt: inv.CompletedAt,
		ResultID:    inv.ResultID,
	}
	if inv.Result != nil {
		score := inv.Result.Score
		resp.Score = &score
		resp.AIAnalysis = inv.Result.AIAnalysis
	}
	return resp
}
