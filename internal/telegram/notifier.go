package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brainmetric/quiz-service/internal/events"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

// ResultNotifier tells users with a linked chat about their finished tests
type ResultNotifier struct {
	sender   Sender
	profiles repositories.ProfileRepository
	logger   *slog.Logger
}

func NewResultNotifier(sender Sender, profiles repositories.ProfileRepository, logger *slog.Logger) *ResultNotifier {
	return &ResultNotifier{
		sender:   sender,
		profiles: profiles,
		logger:   logger,
	}
}

// Handle is an events.ResultFinalizedHandler. Anonymous and recruiter results are skipped.
func (n *ResultNotifier) Handle(ctx context.Context, event *events.ResultFinalizedEvent) error {
	if event.UserID == nil || event.Audience != string(models.ResultAudienceUser) {
		return nil
	}

	profile, err := n.profiles.GetByUserID(ctx, nil, *event.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.TelegramChatID == nil || *profile.TelegramChatID == "" {
		return nil
	}

	chatID, err := strconv.ParseInt(*profile.TelegramChatID, 10, 64)
	if err != nil {
		n.logger.Warn("Stored chat id is not numeric", "user_id", profile.UserID, "chat_id", *profile.TelegramChatID)
		return nil
	}

	text := fmt.Sprintf(textsFor(profile.Lang()).result, html.EscapeString(event.TestTitle), event.Score, event.TotalQuestions)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send result notification: %w", err)
	}

	n.logger.Info("Result notification sent", "result_id", event.ResultID, "user_id", profile.UserID)
	return nil
}
