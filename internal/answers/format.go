package answers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
)

// Separator joins the options of a formatted multi-choice answer.
const Separator = ", "

// Format joins a selection for display, keeping selection order.
func Format(selection []string) string {
	return strings.Join(selection, Separator)
}

// FormatAll derives the formatted answer for every multi-choice question
// answered in a.
func FormatAll(a models.Answers, set *questions.Set) map[string]string {
	out := make(map[string]string)
	for _, q := range set.Questions {
		if q.Type != questions.KindMultiple {
			continue
		}
		if sel, ok := a[q.Key].([]string); ok {
			out[q.Key] = Format(sel)
		}
	}
	return out
}
