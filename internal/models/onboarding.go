package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answers maps a question key to a string (single choice, free text) or a
// []string (multiple choice, in selection order).
type Answers map[string]any

// Selection returns the multi-choice answer for key, or nil.
func (a Answers) Selection(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Text returns the string answer for key, or "".
func (a Answers) Text(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Clone returns a deep copy.
func (a Answers) Clone() Answers {
	if a == nil {
		return nil
	}
	out := make(Answers, len(a))
	for k, v := range a {
		if s, ok := v.([]string); ok {
			out[k] = append([]string(nil), s...)
			continue
		}
		out[k] = v
	}
	return out
}

// NormalizeAnswers converts decoded array values ([]any, primitive.A) back
// into []string. Non-string elements are dropped.
func NormalizeAnswers(m map[string]any) Answers {
	if m == nil {
		return nil
	}
	out := make(Answers, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case primitive.A:
			out[k] = toStrings(val)
		case []any:
			out[k] = toStrings(val)
		default:
			out[k] = val
		}
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// OnboardingResponse is one stored questionnaire submission.
type OnboardingResponse struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	Username         string            `json:"username"`
	QuestionSet      string            `json:"questionSet"`
	Answers          Answers           `json:"answers"`
	FormattedAnswers map[string]string `json:"formattedAnswers"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// ValueCount is one row of a grouping query.
type ValueCount struct {
	Value string `json:"_id" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// LegacyResponse is a stored document that predates the nested
// answers/formattedAnswers layout, in its raw decoded form.
type LegacyResponse struct {
	ID  string
	Raw map[string]any
}

type CollectionInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type DatabaseInfo struct {
	Driver      string           `json:"driver"`
	Database    string           `json:"database"`
	Collections []CollectionInfo `json:"collections"`
}
