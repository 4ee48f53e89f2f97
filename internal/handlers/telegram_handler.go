package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brainmetric/quiz-service/internal/telegram"
	"github.com/brainmetric/quiz-service/internal/utils"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type TelegramHandler struct {
	BaseHandler
	bot    *telegram.Bot
	secret string
}

func NewTelegramHandler(bot *telegram.Bot, secret string, logger utils.Logger) *TelegramHandler {
	return &TelegramHandler{
		BaseHandler: NewBaseHandler(logger, ""),
		bot:         bot,
		secret:      secret,
	}
}

// Webhook receives updates from Telegram. Failures are logged and still answered
// with 200 so Telegram does not redeliver the same update.
func (h *TelegramHandler) Webhook(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			c.JSON(http.StatusForbidden, ErrorResponse{Message: "invalid secret token"})
			return
		}
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid update payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.bot.HandleUpdate(c.Request.Context(), update); err != nil {
		h.LogError(c, err, "Failed to handle telegram update", "update_id", update.UpdateID)
	}

	c.Status(http.StatusOK)
}
