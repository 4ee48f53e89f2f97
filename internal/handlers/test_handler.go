package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/utils"
)

// TestHandler serves the catalogue and the one-question-at-a-time flow
type TestHandler struct {
	BaseHandler
	tests    services.TestService
	attempts services.AttemptService
}

func NewTestHandler(tests services.TestService, attempts services.AttemptService, logger utils.Logger, loginURL string) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger, loginURL),
		tests:       tests,
		attempts:    attempts,
	}
}

// ListTests lists the tests visible to the caller
// @Summary List tests
// @Tags tests
// @Produce json
// @Param lang query string false "Language for anonymous visitors"
// @Success 200 {array} models.TestSummary
// @Router /tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	h.LogRequest(c, "Listing tests")

	tests, err := h.tests.List(c.Request.Context(), viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tests)
}

// GetCurrentQuestion renders the current question, starting the attempt if needed
// @Summary Current question
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} models.QuestionView
// @Failure 302 "Login required"
// @Failure 303 "Question vanished, attempt restarted"
// @Failure 402 {object} ErrorResponse "Subscription required"
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [get]
func (h *TestHandler) GetCurrentQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Rendering question", "test_id", id)

	view, err := h.attempts.Render(c.Request.Context(), id, viewerFromContext(c))
	if err != nil {
		h.handleAttemptError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Navigate moves through the attempt
// @Summary Navigate attempt
// @Description Applies next, prev or finish. Malformed input finishes the attempt.
// @Tags tests
// @Accept json
// @Produce json
// @Param id path uint true "Test ID"
// @Param request body models.NavigateRequest true "Navigation"
// @Success 200 {object} models.NavigateResponse
// @Failure 410 {object} ErrorResponse "Invitation already used"
// @Router /tests/{id} [post]
func (h *TestHandler) Navigate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.NavigateRequest
	if err := c.ShouldBind(&req); err != nil {
		// an empty request is malformed navigation and finalizes the attempt
		utils.GetLogger(c, h.logger).Debug("Unparseable navigation body", "error", err)
		req = models.NavigateRequest{}
	}

	h.LogRequest(c, "Navigating", "test_id", id, "action", req.Action)

	resp, err := h.attempts.Navigate(c.Request.Context(), id, viewerFromContext(c), &req)
	if err != nil {
		h.handleAttemptError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResetAttempt drops the in-progress attempt
// @Summary Reset attempt
// @Tags tests
// @Param id path uint true "Test ID"
// @Success 204
// @Router /tests/{id} [delete]
func (h *TestHandler) ResetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.attempts.Reset(c.Request.Context(), id, viewerFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TestHandler) handleAttemptError(c *gin.Context, testID uint, err error) {
	if errors.Is(err, services.ErrQuestionMissing) {
		c.Redirect(http.StatusSeeOther, testEntryPath(testID))
		return
	}
	h.handleServiceError(c, err)
}
