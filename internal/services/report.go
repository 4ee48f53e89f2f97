package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brainmetric/quiz-service/internal/models"
)

// ReportGenerator writes the narrative part of a result
type ReportGenerator interface {
	Generate(ctx context.Context, req models.ReportRequest) (string, error)
}

type fallbackTexts struct {
	greeting   string
	zero       string
	high       string
	middle     string
	strongest  string
	psychology string
	candidate  string
}

var fallbackMessages = map[string]fallbackTexts{
	"ru": {
		greeting:   "Здравствуйте, %s!",
		zero:       "К сожалению, вы не дали правильных ответов. Стоит попробовать еще раз.",
		high:       "У вас отличные показатели!",
		middle:     "Неплохой результат, но есть куда расти.",
		strongest:  "Ваша сильная сторона: %s.",
		psychology: "Спасибо за прохождение теста. Подробный анализ временно недоступен, ваши ответы сохранены.",
		candidate:  "Кандидат %s завершил тест: %d из %d.",
	},
	"kk": {
		greeting:   "Сәлеметсіз бе, %s!",
		zero:       "Өкінішке орай, дұрыс жауап берілмеді. Қайта байқап көріңіз.",
		high:       "Сізде тамаша көрсеткіштер!",
		middle:     "Жақсы нәтиже, бірақ өсуге мүмкіндік бар.",
		strongest:  "Сіздің күшті жағыңыз: %s.",
		psychology: "Тестті тапсырғаныңыз үшін рахмет. Толық талдау уақытша қолжетімсіз, жауаптарыңыз сақталды.",
		candidate:  "Кандидат %s тестті аяқтады: %d / %d.",
	},
	"en": {
		greeting:   "Hello, %s!",
		zero:       "Unfortunately there were no correct answers. It is worth trying again.",
		high:       "You have excellent results!",
		middle:     "A decent result, but there is room to grow.",
		strongest:  "Your strongest area: %s.",
		psychology: "Thank you for taking the test. A detailed analysis is temporarily unavailable, your answers have been saved.",
		candidate:  "Candidate %s finished the test: %d of %d.",
	},
}

// FallbackReport is the local text used when the generator is unavailable.
// It never returns an empty string.
func FallbackReport(req models.ReportRequest, categoryOrder []string) string {
	texts, ok := fallbackMessages[req.Language]
	if !ok {
		texts = fallbackMessages[models.DefaultLanguage]
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = "—"
	}

	lines := []string{}
	if req.Audience == models.ResultAudienceRecruiter {
		lines = append(lines, fmt.Sprintf(texts.candidate, name, req.Score, req.TotalQuestions))
	} else {
		lines = append(lines, fmt.Sprintf(texts.greeting, name))
	}

	if req.TestKind == models.TestKindPsychology {
		lines = append(lines, texts.psychology)
		return strings.Join(lines, "\n\n")
	}

	switch {
	case req.Score == 0:
		lines = append(lines, texts.zero)
	case req.Score > 5:
		lines = append(lines, texts.high)
	default:
		lines = append(lines, texts.middle)
	}

	if best, ok := models.StrongestCategory(req.CategoryStats, categoryOrder); ok {
		lines = append(lines, fmt.Sprintf(texts.strongest, best))
	}

	return strings.Join(lines, "\n\n")
}

// narrate asks the generator and falls back to the local text on any failure
func narrate(ctx context.Context, gen ReportGenerator, req models.ReportRequest, categoryOrder []string, logger *slog.Logger) string {
	if gen != nil {
		text, err := gen.Generate(ctx, req)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err == nil {
			err = fmt.Errorf("empty report")
		}
		logger.Warn("Report generator failed, using fallback", "error", err, "test_kind", req.TestKind)
	}
	return FallbackReport(req, categoryOrder)
}
