package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmetric/quiz-service/internal/models"
)

func TestAccessGate(t *testing.T) {
	repo := newFakeRepo()
	general := &models.Test{Title: "General"}
	other := &models.Test{Title: "Other"}
	recruiter := &models.Test{Title: "Recruiter", Audience: models.AudienceRecruiter}
	repo.addTest(general, 1, models.CategoryLogic)
	repo.addTest(other, 1, models.CategoryLogic)
	repo.addTest(recruiter, 1, models.CategoryLogic)

	free := "free"
	repo.profiles[free] = &models.Profile{UserID: free, Plan: models.PlanFree}
	repo.profiles["premium"] = &models.Profile{UserID: "premium", Plan: models.PlanPremium}
	repo.profiles["hr"] = &models.Profile{UserID: "hr", Plan: models.PlanHR}
	repo.results[500] = &models.Result{ID: 500, UserID: &free, TestID: general.ID}

	gate := NewAccessGate(repo, nil, discardLogger())
	ctx := context.Background()
	invitation := &models.Invitation{Token: "t", TestID: recruiter.ID}

	t.Run("anonymous general", func(t *testing.T) {
		assert.NoError(t, gate.Check(ctx, general, Viewer{Client: "c"}, nil))
	})

	t.Run("anonymous recruiter needs login", func(t *testing.T) {
		var loginErr *LoginRequiredError
		require.True(t, errors.As(gate.Check(ctx, recruiter, Viewer{Client: "c"}, nil), &loginErr))
		assert.Equal(t, recruiter.ID, loginErr.TestID)
	})

	t.Run("invitation bypasses", func(t *testing.T) {
		assert.NoError(t, gate.Check(ctx, recruiter, Viewer{Client: "c"}, invitation))
		assert.NoError(t, gate.Check(ctx, recruiter, Viewer{Client: "c", UserID: free}, invitation))
	})

	t.Run("used invitation does not bypass", func(t *testing.T) {
		used := &models.Invitation{Token: "u", TestID: recruiter.ID, IsCompleted: true}
		var loginErr *LoginRequiredError
		assert.True(t, errors.As(gate.Check(ctx, recruiter, Viewer{Client: "c"}, used), &loginErr))
	})

	t.Run("recruiter test needs hr plan", func(t *testing.T) {
		var subErr *SubscriptionRequiredError
		require.True(t, errors.As(gate.Check(ctx, recruiter, Viewer{UserID: "premium"}, nil), &subErr))
		assert.Equal(t, models.PlanHR, subErr.RequiredPlan)

		assert.NoError(t, gate.Check(ctx, recruiter, Viewer{UserID: "hr"}, nil))
		assert.NoError(t, gate.Check(ctx, recruiter, Viewer{UserID: "staff", IsSuperuser: true}, nil))
	})

	t.Run("free plan keeps its first test", func(t *testing.T) {
		assert.NoError(t, gate.Check(ctx, general, Viewer{UserID: free}, nil))

		var subErr *SubscriptionRequiredError
		require.True(t, errors.As(gate.Check(ctx, other, Viewer{UserID: free}, nil), &subErr))
		assert.Equal(t, models.PlanPremium, subErr.RequiredPlan)
	})

	t.Run("free plan without results", func(t *testing.T) {
		assert.NoError(t, gate.Check(ctx, other, Viewer{UserID: "newcomer"}, nil))
	})

	t.Run("paid and staff are not limited", func(t *testing.T) {
		assert.NoError(t, gate.Check(ctx, other, Viewer{UserID: "premium"}, nil))

		staff := "staff-free"
		repo.results[501] = &models.Result{ID: 501, UserID: &staff, TestID: general.ID}
		assert.NoError(t, gate.Check(ctx, other, Viewer{UserID: staff, IsSuperuser: true}, nil))
	})
}
