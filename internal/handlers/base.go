package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/utils"
)

type ErrorResponse struct {
	Message      string      `json:"message"`
	Details      interface{} `json:"details,omitempty"`
	RequiredPlan string      `json:"required_plan,omitempty"`
}

type ListResponse struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// BaseHandler carries what every handler needs: a logger and the error mapping
type BaseHandler struct {
	logger   utils.Logger
	loginURL string
}

func NewBaseHandler(logger utils.Logger, loginURL string) BaseHandler {
	return BaseHandler{logger: logger, loginURL: loginURL}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam writes a 400 and returns 0 when the path param is not a positive id
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: fmt.Sprintf("Invalid %s", name),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// testEntryPath is where a client (re)starts a test
func testEntryPath(testID uint) string {
	return fmt.Sprintf("/api/v1/tests/%d", testID)
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		validationErrs  services.ValidationErrors
		permissionErr   *services.PermissionError
		subscriptionErr *services.SubscriptionRequiredError
		loginErr        *services.LoginRequiredError
	)

	switch {
	case errors.As(err, &loginErr):
		target := h.loginURL
		if u, parseErr := url.Parse(h.loginURL); parseErr == nil {
			q := u.Query()
			q.Set("next", testEntryPath(loginErr.TestID))
			u.RawQuery = q.Encode()
			target = u.String()
		}
		c.Redirect(http.StatusFound, target)
	case errors.As(err, &subscriptionErr):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{
			Message:      "Subscription required",
			Details:      subscriptionErr.Reason,
			RequiredPlan: string(subscriptionErr.RequiredPlan),
		})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: permissionErr.Reason,
		})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
	case errors.Is(err, services.ErrInvitationUsed):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Invitation already used"})
	case errors.Is(err, services.ErrNoQuestions):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Test has no questions"})
	case errors.Is(err, services.ErrTestNotFound),
		errors.Is(err, services.ErrResultNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		repositories.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Not found"})
	default:
		h.LogError(c, err, "Unhandled service error", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
