package answers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
)

// FromLegacy extracts the raw answers for set from a document stored in
// an earlier layout: nested under "responses" (with optional "<key>_array"
// copies) or flat at the top level. The result still has to be validated.
func FromLegacy(doc map[string]any, set *questions.Set) map[string]any {
	nested, _ := doc["responses"].(map[string]any)
	raw := make(map[string]any)

	for _, q := range set.Questions {
		if q.Type == questions.KindMultiple {
			if v, ok := nested[q.Key+"_array"]; ok && v != nil {
				raw[q.Key] = v
				continue
			}
		}
		if v, ok := nested[q.Key]; ok && v != nil {
			raw[q.Key] = coerce(q, v)
			continue
		}
		if v, ok := doc[q.Key]; ok && v != nil {
			raw[q.Key] = coerce(q, v)
		}
	}
	return raw
}

func coerce(q *questions.Question, v any) any {
	s, ok := v.(string)
	if !ok || q.Type != questions.KindMultiple {
		return v
	}
	if sel, ok := ParseFormatted(s, q.Options); ok {
		return sel
	}
	return v
}

// ParseFormatted splits a formatted multi-choice string back into options.
// Options may themselves contain the separator, so the string is matched
// against the option list, longest option first.
func ParseFormatted(s string, options []string) ([]string, bool) {
	out := []string{}
	rest := s
	for rest != "" {
		best := ""
		for _, o := range options {
			if len(o) <= len(best) || !strings.HasPrefix(rest, o) {
				continue
			}
			after := rest[len(o):]
			if after == "" || strings.HasPrefix(after, Separator) {
				best = o
			}
		}
		if best == "" {
			return nil, false
		}
		out = append(out, best)
		rest = strings.TrimPrefix(rest[len(best):], Separator)
	}
	return out, true
}
