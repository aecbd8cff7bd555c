// Package answers validates raw questionnaire submissions against a
// question set and derives the display strings stored alongside them.
package answers

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
)

// Validate checks raw against set and returns the normalized answers. On
// failure the error is a *ValidationError describing every bad field.
func Validate(raw map[string]any, set *questions.Set) (models.Answers, error) {
	verr := &ValidationError{}
	out := make(models.Answers, len(set.Questions))

	for _, q := range set.Questions {
		v, present := raw[q.Key]
		if v == nil {
			present = false
		}

		switch q.Type {
		case questions.KindSingle:
			if !present {
				if q.Required {
					verr.add(q.Key, MissingField, "%s is required", q.Key)
				}
				continue
			}
			s, ok := v.(string)
			if !ok {
				verr.add(q.Key, InvalidType, "%s expects a single option", q.Key)
				continue
			}
			if s == "" {
				if q.Required {
					verr.add(q.Key, MissingField, "%s is required", q.Key)
				}
				continue
			}
			if !q.HasOption(s) {
				verr.add(q.Key, InvalidOption, "%q is not a valid option for %s", s, q.Key)
				continue
			}
			out[q.Key] = s

		case questions.KindMultiple:
			if !present {
				if q.Required {
					verr.add(q.Key, MissingField, "%s is required", q.Key)
				}
				continue
			}
			sel, ok := selection(v)
			if !ok {
				verr.add(q.Key, InvalidType, "%s expects a list of options", q.Key)
				continue
			}
			if len(sel) == 0 {
				verr.add(q.Key, EmptySelection, "at least one option must be selected for %s", q.Key)
				continue
			}
			var invalid []string
			for _, s := range sel {
				if !q.HasOption(s) {
					invalid = append(invalid, s)
				}
			}
			if len(invalid) > 0 {
				verr.add(q.Key, InvalidOption, "invalid options for %s: %s", q.Key, strings.Join(quoteAll(invalid), ", "))
				continue
			}
			out[q.Key] = dedupe(sel)

		case questions.KindText:
			if !present {
				if q.Required {
					verr.add(q.Key, MissingField, "%s is required", q.Key)
				}
				continue
			}
			s, ok := v.(string)
			if !ok {
				verr.add(q.Key, InvalidType, "%s expects text", q.Key)
				continue
			}
			if n := utf8.RuneCountInString(s); n > questions.TextLimit {
				verr.add(q.Key, TooLong, "%s must be at most %d characters, got %d", q.Key, questions.TextLimit, n)
				continue
			}
			if s == "" && q.Required {
				verr.add(q.Key, MissingField, "%s is required", q.Key)
				continue
			}
			out[q.Key] = s
		}
	}

	var unknown []string
	for k := range raw {
		if _, ok := set.Question(k); !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		verr.add(k, UnknownField, "%s is not part of question set %s", k, set.Version)
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return out, nil
}

// selection accepts a list of strings, or a bare string as a one-element
// selection. An empty string is an empty selection.
func selection(v any) ([]string, bool) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil, true
		}
		return []string{val}, true
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = `"` + s + `"`
	}
	return out
}
