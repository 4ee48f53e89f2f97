package handlers

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/utils"
)

var trendPeriods = map[string]int{
	"week":  7,
	"month": 30,
	"year":  365,
}

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger, ""),
		service:     service,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetDashboardStats returns overall dashboard statistics
// @Summary Get dashboard statistics
// @Description Totals for tests, questions, results and users, plus average score
// @Tags dashboard
// @Produce json
// @Param period query int false "Days a user counts as active (default: 30)"
// @Success 200 {object} services.DashboardStatsResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/dashboard/stats [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard stats")

	period, err := strconv.Atoi(c.DefaultQuery("period", "30"))
	if err != nil || period < 1 {
		period = 30
	}

	stats, err := h.service.GetDashboardStats(c.Request.Context(), period)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetActivityTrends returns results per day
// @Summary Get activity trends
// @Tags dashboard
// @Produce json
// @Param period query string false "Time period: week, month, or year (default: month)"
// @Success 200 {array} services.ActivityTrendResponse
// @Failure 400 {object} ErrorResponse "Bad request - invalid period"
// @Router /admin/dashboard/activity-trends [get]
func (h *DashboardHandler) GetActivityTrends(c *gin.Context) {
	h.LogRequest(c, "Getting activity trends")

	days, ok := trendPeriods[c.DefaultQuery("period", "month")]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid period parameter",
			Details: "Period must be 'week', 'month', or 'year'",
		})
		return
	}

	trends, err := h.service.GetActivityTrends(c.Request.Context(), days)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trends)
}

// GetQuestionDistribution returns question counts per category
// @Summary Get question distribution
// @Tags dashboard
// @Produce json
// @Param lang query string false "Label language (ru, kk, en)"
// @Success 200 {array} services.QuestionDistributionResponse
// @Router /admin/dashboard/question-distribution [get]
func (h *DashboardHandler) GetQuestionDistribution(c *gin.Context) {
	h.LogRequest(c, "Getting question distribution")

	distribution, err := h.service.GetQuestionDistribution(c.Request.Context(), labelLanguage(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, distribution)
}

// GetCategoryAccuracy returns the share of correct answers per category
// @Summary Get accuracy by category
// @Tags dashboard
// @Produce json
// @Param lang query string false "Label language (ru, kk, en)"
// @Success 200 {array} services.CategoryAccuracyResponse
// @Router /admin/dashboard/category-accuracy [get]
func (h *DashboardHandler) GetCategoryAccuracy(c *gin.Context) {
	h.LogRequest(c, "Getting category accuracy")

	accuracy, err := h.service.GetCategoryAccuracy(c.Request.Context(), labelLanguage(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, accuracy)
}

func labelLanguage(c *gin.Context) string {
	lang := c.DefaultQuery("lang", models.DefaultLanguage)
	if !slices.Contains(models.SupportedLanguages, lang) {
		return models.DefaultLanguage
	}
	return lang
}
