// Package telegram is the chat front-end of the question bank.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/services"
)

const (
	answerPrefix = "ans_"
	nextQuestion = "next_q"
)

// Sender is the part of tgbotapi.BotAPI the bot needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	sender    Sender
	service   services.BotService
	mediaRoot string
	logger    *slog.Logger
}

func NewBot(sender Sender, service services.BotService, mediaRoot string, logger *slog.Logger) *Bot {
	return &Bot{
		sender:    sender,
		service:   service,
		mediaRoot: mediaRoot,
		logger:    logger,
	}
}

// HandleUpdate dispatches one webhook update. Updates the bot does not understand are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		return b.handleCommand(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		code := strings.TrimSpace(msg.CommandArguments())
		if code == "" {
			return b.reply(chatID, textsFor(b.language(ctx, chatID)).hello, nil)
		}
		return b.link(ctx, msg, code)
	case "train":
		return b.sendQuestion(ctx, chatID)
	}
	return nil
}

func (b *Bot) link(ctx context.Context, msg *tgbotapi.Message, code string) error {
	chatID := msg.Chat.ID
	profile, err := b.service.LinkChat(ctx, strings.ToUpper(code), chatKey(chatID))
	if errors.Is(err, services.ErrInvalidLinkCode) {
		return b.reply(chatID, textsFor(b.language(ctx, chatID)).errorCode, nil)
	}
	if err != nil {
		return err
	}

	name := profile.DisplayName
	if msg.From != nil {
		if full := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName); full != "" {
			name = full
		}
	}
	return b.reply(chatID, fmt.Sprintf(textsFor(profile.Lang()).welcome, html.EscapeString(name)), nil)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if _, err := b.sender.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	if cq.Message == nil || cq.Message.Chat == nil {
		return nil
	}
	chatID := cq.Message.Chat.ID

	// drop the old buttons so an answer cannot be sent twice
	clear := tgbotapi.NewEditMessageReplyMarkup(chatID, cq.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.sender.Request(clear); err != nil {
		b.logger.Debug("Failed to clear keyboard", "error", err)
	}

	switch {
	case cq.Data == nextQuestion:
		return b.sendQuestion(ctx, chatID)
	case strings.HasPrefix(cq.Data, answerPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(cq.Data, answerPrefix), 10, 64)
		if err != nil {
			b.logger.Warn("Malformed callback data", "data", cq.Data)
			return nil
		}
		return b.answer(ctx, chatID, uint(id))
	}
	return nil
}

func (b *Bot) answer(ctx context.Context, chatID int64, answerID uint) error {
	outcome, err := b.service.Answer(ctx, chatKey(chatID), answerID)
	if err != nil {
		t := textsFor(b.language(ctx, chatID))
		switch {
		case errors.Is(err, services.ErrBotQuotaExceeded):
			return b.reply(chatID, t.limit, nil)
		case errors.Is(err, services.ErrChatNotLinked):
			return b.reply(chatID, t.hello, nil)
		case errors.Is(err, services.ErrAnswerNotFound):
			return b.reply(chatID, t.failure, nil)
		}
		b.logger.Error("Failed to record bot answer", "chat_id", chatID, "error", err)
		_ = b.reply(chatID, t.failure, nil)
		return err
	}

	t := textsFor(outcome.Language)
	lines := []string{t.wrong}
	if outcome.Correct {
		lines[0] = t.correct
	} else if outcome.CorrectAnswer != "" {
		lines = append(lines, fmt.Sprintf(t.correctAnswer, html.EscapeString(outcome.CorrectAnswer)))
	}
	if outcome.Remaining >= 0 {
		lines = append(lines, fmt.Sprintf(t.remaining, outcome.Remaining))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(t.next, nextQuestion)),
	)
	return b.reply(chatID, strings.Join(lines, "\n"), &keyboard)
}

func (b *Bot) sendQuestion(ctx context.Context, chatID int64) error {
	q, err := b.service.NextQuestion(ctx, chatKey(chatID))
	if err != nil {
		t := textsFor(b.language(ctx, chatID))
		switch {
		case errors.Is(err, services.ErrChatNotLinked):
			return b.reply(chatID, t.hello, nil)
		case errors.Is(err, services.ErrNoQuestions):
			return b.reply(chatID, t.noQuestions, nil)
		}
		b.logger.Error("Failed to pick bot question", "chat_id", chatID, "error", err)
		_ = b.reply(chatID, t.failure, nil)
		return err
	}

	t := textsFor(q.Language)
	caption := fmt.Sprintf(t.caption, html.EscapeString(q.Text))

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for _, o := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.Text, answerPrefix+strconv.FormatUint(uint64(o.ID), 10)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	if q.Image != nil && *q.Image != "" {
		path := filepath.Join(b.mediaRoot, filepath.FromSlash(*q.Image))
		if _, statErr := os.Stat(path); statErr == nil {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeHTML
			photo.ReplyMarkup = keyboard
			_, err := b.sender.Send(photo)
			if err == nil {
				return nil
			}
			b.logger.Warn("Failed to send question photo, sending text", "question_id", q.QuestionID, "error", err)
		}
	}

	return b.reply(chatID, caption, &keyboard)
}

func (b *Bot) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// language of the linked profile, or the default for unknown chats
func (b *Bot) language(ctx context.Context, chatID int64) string {
	profile, err := b.service.ProfileForChat(ctx, chatKey(chatID))
	if err != nil {
		return models.DefaultLanguage
	}
	return profile.Lang()
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
