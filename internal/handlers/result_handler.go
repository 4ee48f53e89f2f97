package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/utils"
)

type ResultHandler struct {
	BaseHandler
	service services.ResultService
}

func NewResultHandler(service services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger, ""),
		service:     service,
	}
}

// GetResult returns a finished attempt with its answers
// @Summary Get result
// @Tags results
// @Produce json
// @Param id path uint true "Result ID"
// @Success 200 {object} models.ResultView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /results/{id} [get]
func (h *ResultHandler) GetResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting result", "result_id", id)

	result, err := h.service.GetByID(c.Request.Context(), id, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegenerateAnalysis asks the report generator again for an existing result
// @Summary Regenerate analysis
// @Tags results
// @Produce json
// @Param id path uint true "Result ID"
// @Success 200 {object} models.ResultView
// @Failure 403 {object} ErrorResponse
// @Router /results/{id}/regenerate [post]
func (h *ResultHandler) RegenerateAnalysis(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Regenerating analysis", "result_id", id)

	result, err := h.service.RegenerateAnalysis(c.Request.Context(), id, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
