package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brainmetric/quiz-service/internal/models"
)

var languageNames = map[string]string{
	"ru": "Russian",
	"kk": "Kazakh",
	"en": "English",
}

// BuildPrompt turns a report request into the instruction sent to the model
func BuildPrompt(req models.ReportRequest) string {
	lang, ok := languageNames[req.Language]
	if !ok {
		lang = languageNames[models.DefaultLanguage]
	}

	var b strings.Builder
	switch req.TestKind {
	case models.TestKindPsychology:
		b.WriteString("You are an organisational psychologist. Write a short personality and soft-skills profile ")
		b.WriteString("based on the answers below. Do not mention scores.\n")
	default:
		b.WriteString("You are a cognitive assessment expert. Write a short, encouraging analysis of an IQ test result.\n")
	}

	if req.Audience == models.ResultAudienceRecruiter {
		b.WriteString("The reader is a recruiter evaluating a candidate: refer to the person in the third person ")
		b.WriteString("and finish with a hiring-oriented recommendation.\n")
	} else {
		fmt.Fprintf(&b, "Address the person directly by name (%s).\n", req.UserName)
	}
	fmt.Fprintf(&b, "Answer in %s, plain text, at most 200 words.\n\n", lang)

	fmt.Fprintf(&b, "Name: %s\n", req.UserName)
	if req.TestKind != models.TestKindPsychology {
		fmt.Fprintf(&b, "Score: %d of %d\n", req.Score, req.TotalQuestions)
		if len(req.CategoryStats) > 0 {
			b.WriteString("Correct answers by category:\n")
			labels := make([]string, 0, len(req.CategoryStats))
			for label := range req.CategoryStats {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				fmt.Fprintf(&b, "- %s: %d\n", label, req.CategoryStats[label])
			}
		}
	}

	if len(req.DetailedAnswers) > 0 {
		b.WriteString("Answers:\n")
		for i, a := range req.DetailedAnswers {
			selected := a.SelectedAnswer
			if selected == "" {
				selected = "(no answer)"
			}
			fmt.Fprintf(&b, "%d. %s -> %s\n", i+1, a.Question, selected)
		}
	}

	return b.String()
}
