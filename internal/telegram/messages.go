package telegram

import (
	"github.com/brainmetric/quiz-service/internal/models"
)

type messages struct {
	welcome       string
	errorCode     string
	hello         string
	limit         string
	noQuestions   string
	correct       string
	wrong         string
	correctAnswer string
	remaining     string
	next          string
	caption       string
	failure       string
	result        string
}

var catalog = map[string]messages{
	"ru": {
		welcome:       "✅ <b>%s</b>, вы подключены!\nНажмите /train чтобы начать.",
		errorCode:     "❌ Ошибка. Код не найден.",
		hello:         "Привет! Напишите /start ВАШ_КОД",
		limit:         "🚫 Лимит на сегодня исчерпан! Купите Premium на сайте.",
		noQuestions:   "В этой категории нет вопросов.",
		correct:       "✅ Правильно!",
		wrong:         "❌ Ошибка.",
		correctAnswer: "Правильный ответ: %s",
		remaining:     "Осталось вопросов на сегодня: %d",
		next:          "Следующий вопрос ➡️",
		caption:       "<b>Вопрос:</b>\n%s",
		failure:       "Error / Қате / Ошибка",
		result:        "📊 Тест «%s» завершен: %d из %d.",
	},
	"kk": {
		welcome:       "✅ <b>%s</b>, қосылдыңыз!\nБастау үшін /train басыңыз.",
		errorCode:     "❌ Қате. Код табылмады.",
		hello:         "Сәлем! /start СІЗДІҢ_КОДЫҢЫЗ жазыңыз",
		limit:         "🚫 Бүгінгі лимит таусылды! Сайттан Premium сатып алыңыз.",
		noQuestions:   "Бұл санатта сұрақтар жоқ.",
		correct:       "✅ Дұрыс!",
		wrong:         "❌ Қате.",
		correctAnswer: "Дұрыс жауап: %s",
		remaining:     "Бүгінге қалған сұрақтар: %d",
		next:          "Келесі сұрақ ➡️",
		caption:       "<b>Сұрақ:</b>\n%s",
		failure:       "Error / Қате / Ошибка",
		result:        "📊 «%s» тесті аяқталды: %d / %d.",
	},
	"en": {
		welcome:       "✅ <b>%s</b>, connected!\nPress /train to start.",
		errorCode:     "❌ Error. Code not found.",
		hello:         "Hi! Type /start YOUR_CODE",
		limit:         "🚫 Daily limit reached! Buy Premium on website.",
		noQuestions:   "No questions in this category.",
		correct:       "✅ Correct!",
		wrong:         "❌ Wrong.",
		correctAnswer: "Correct answer: %s",
		remaining:     "Questions left today: %d",
		next:          "Next question ➡️",
		caption:       "<b>Question:</b>\n%s",
		failure:       "Error / Қате / Ошибка",
		result:        "📊 Test \"%s\" finished: %d of %d.",
	},
}

func textsFor(lang string) messages {
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog[models.DefaultLanguage]
}
