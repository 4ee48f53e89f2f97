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

type InvitationHandler struct {
	BaseHandler
	service services.InvitationService
}

func NewInvitationHandler(service services.InvitationService, logger utils.Logger) *InvitationHandler {
	return &InvitationHandler{
		BaseHandler: NewBaseHandler(logger, ""),
		service:     service,
	}
}

// CreateInvitation sends a candidate a single-use link to a test
// @Summary Create invitation
// @Tags hr
// @Accept json
// @Produce json
// @Param request body models.InvitationCreateRequest true "Invitation"
// @Success 201 {object} models.InvitationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse "HR plan required"
// @Router /hr/invitations [post]
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	var req models.InvitationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating invitation", "test_id", req.TestID)

	invitation, err := h.service.Create(c.Request.Context(), viewerFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ListInvitations lists the recruiter's invitations with candidate scores
// @Summary List invitations
// @Tags hr
// @Produce json
// @Param test_id query int false "Filter by test"
// @Param completed query bool false "Filter by completion"
// @Success 200 {object} ListResponse{data=[]models.InvitationResponse}
// @Router /hr/invitations [get]
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	h.LogRequest(c, "Listing invitations")

	limit, offset := h.parsePagination(c)
	filters := repositories.InvitationFilters{Limit: limit, Offset: offset}
	if raw := c.Query("test_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			testID := uint(id)
			filters.TestID = &testID
		}
	}
	if raw := c.Query("completed"); raw != "" {
		if completed, err := strconv.ParseBool(raw); err == nil {
			filters.IsCompleted = &completed
		}
	}

	invitations, total, err := h.service.List(c.Request.Context(), viewerFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:   invitations,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// OpenInvitation activates the invitation for this browser and sends it to the test
// @Summary Open invitation link
// @Tags invitations
// @Param token path string true "Invitation token"
// @Success 302 "Redirect to the test"
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /invitations/{token} [get]
func (h *InvitationHandler) OpenInvitation(c *gin.Context) {
	h.LogRequest(c, "Opening invitation")

	invitation, err := h.service.Open(c.Request.Context(), c.Param("token"), c.GetString(clientContextKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Redirect(http.StatusFound, testEntryPath(invitation.TestID))
}
