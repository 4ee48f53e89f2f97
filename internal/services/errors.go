package services

import (
	"errors"
	"fmt"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/validator"
)

var (
	// Tests and questions
	ErrTestNotFound    = errors.New("test not found")
	ErrNoQuestions     = errors.New("test has no questions")
	ErrQuestionMissing = errors.New("question no longer exists")

	// Results
	ErrResultNotFound     = errors.New("result not found")
	ErrResultAccessDenied = errors.New("access denied to result")

	// Invitations
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationUsed     = errors.New("invitation already used")

	// Bot
	ErrInvalidLinkCode  = errors.New("invalid telegram link code")
	ErrChatNotLinked    = errors.New("telegram chat is not linked")
	ErrBotQuotaExceeded = errors.New("daily bot limit reached")
	ErrAnswerNotFound   = errors.New("answer not found")

	ErrUnauthenticated = errors.New("authentication required")
)

type ValidationErrors = validator.ValidationErrors

// PermissionError is returned when the caller is known but not allowed
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// SubscriptionRequiredError asks the caller to upgrade before entering a test
type SubscriptionRequiredError struct {
	TestID       uint
	RequiredPlan models.Plan
	Reason       string
}

func (e *SubscriptionRequiredError) Error() string {
	return fmt.Sprintf("test %d requires plan %s: %s", e.TestID, e.RequiredPlan, e.Reason)
}

// LoginRequiredError sends anonymous visitors to the login page
type LoginRequiredError struct {
	TestID uint
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("test %d requires login", e.TestID)
}
