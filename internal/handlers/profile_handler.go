package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/utils"
)

type ProfileHandler struct {
	BaseHandler
	profiles services.ProfileService
	results  services.ResultService
}

func NewProfileHandler(profiles services.ProfileService, results services.ResultService, logger utils.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler: NewBaseHandler(logger, ""),
		profiles:    profiles,
		results:     results,
	}
}

// GetProfile returns the caller's profile
// @Summary Get profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	h.LogRequest(c, "Getting profile")

	profile, err := h.profiles.Get(c.Request.Context(), viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile changes display name, bot category or language
// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Param request body models.ProfileUpdateRequest true "Profile fields"
// @Success 200 {object} models.ProfileResponse
// @Failure 400 {object} ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req models.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating profile")

	profile, err := h.profiles.Update(c.Request.Context(), viewerFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// IssueTelegramCode issues a one-time code for /start in the bot
// @Summary Issue Telegram link code
// @Tags profile
// @Produce json
// @Success 200 {object} models.TelegramCodeResponse
// @Router /profile/telegram-code [post]
func (h *ProfileHandler) IssueTelegramCode(c *gin.Context) {
	h.LogRequest(c, "Issuing telegram code")

	code, err := h.profiles.IssueTelegramCode(c.Request.Context(), viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, code)
}

// ListMyResults lists the caller's results, newest first
// @Summary List my results
// @Tags profile
// @Produce json
// @Param test_id query int false "Filter by test"
// @Param limit query int false "Page size (default 20)"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse{data=[]models.ResultSummary}
// @Router /profile/results [get]
func (h *ProfileHandler) ListMyResults(c *gin.Context) {
	h.LogRequest(c, "Listing my results")

	limit, offset := h.parsePagination(c)
	filters := repositories.ResultFilters{Limit: limit, Offset: offset}
	if raw := c.Query("test_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			testID := uint(id)
			filters.TestID = &testID
		}
	}

	results, total, err := h.results.ListMine(c.Request.Context(), viewerFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:   results,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
