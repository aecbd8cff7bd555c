package answers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
)

func questionSet(t *testing.T, version string) *questions.Set {
	t.Helper()
	r, err := questions.Default()
	require.NoError(t, err)
	set, err := r.Get(version)
	require.NoError(t, err)
	return set
}

func validTrading() map[string]any {
	return map[string]any{
		"question1_tradingExperience":  "Beginner",
		"question3_tradingStyle":       []any{"Day Trading", "Swing Trading"},
		"question4_informationSources": []any{"Historical data and statistics"},
		"question5_tradingFrequency":   "Daily",
	}
}

func requireFieldError(t *testing.T, err error, field string, kind Kind) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fe, ok := verr.Field(field)
	require.True(t, ok, "no failure recorded for %s: %v", field, err)
	assert.Equal(t, kind, fe.Kind)
}

func TestValidateAcceptsValidSubmission(t *testing.T) {
	set := questionSet(t, "trading-v1")

	got, err := Validate(validTrading(), set)
	require.NoError(t, err)
	assert.Equal(t, "Beginner", got.Text("question1_tradingExperience"))
	assert.Equal(t, []string{"Day Trading", "Swing Trading"}, got.Selection("question3_tradingStyle"))
	assert.Equal(t, []string{"Historical data and statistics"}, got.Selection("question4_informationSources"))
	assert.NotContains(t, got, "question6_additionalExperience")
}

func TestValidateSingleChoiceOutsideEnum(t *testing.T) {
	set := questionSet(t, "trading-v1")
	raw := validTrading()
	raw["question1_tradingExperience"] = "Guru"

	_, err := Validate(raw, set)
	requireFieldError(t, err, "question1_tradingExperience", InvalidOption)
}

func TestValidateMultiChoiceOutsideEnum(t *testing.T) {
	set := questionSet(t, "trading-v1")
	raw := validTrading()
	raw["question3_tradingStyle"] = []any{"Day Trading", "Crypto Maxi"}

	_, err := Validate(raw, set)
	requireFieldError(t, err, "question3_tradingStyle", InvalidOption)
	assert.Contains(t, err.Error(), "question3_tradingStyle")
}

func TestValidateEmptySelection(t *testing.T) {
	set := questionSet(t, "trading-v1")
	for _, empty := range []any{[]any{}, []string{}, ""} {
		raw := validTrading()
		raw["question4_informationSources"] = empty

		_, err := Validate(raw, set)
		requireFieldError(t, err, "question4_informationSources", EmptySelection)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	set := questionSet(t, "trading-v1")
	raw := validTrading()
	delete(raw, "question5_tradingFrequency")
	raw["question1_tradingExperience"] = ""

	_, err := Validate(raw, set)
	requireFieldError(t, err, "question1_tradingExperience", MissingField)
	requireFieldError(t, err, "question5_tradingFrequency", MissingField)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MissingField, verr.Kind())
	assert.Len(t, verr.Fields, 2)
}

func TestValidateFreeTextLimit(t *testing.T) {
	set := questionSet(t, "trading-v1")

	raw := validTrading()
	raw["question6_additionalExperience"] = strings.Repeat("a", questions.TextLimit)
	got, err := Validate(raw, set)
	require.NoError(t, err)
	assert.Len(t, got.Text("question6_additionalExperience"), questions.TextLimit)

	raw["question6_additionalExperience"] = strings.Repeat("é", questions.TextLimit)
	_, err = Validate(raw, set)
	require.NoError(t, err, "limit counts characters, not bytes")

	raw["question6_additionalExperience"] = strings.Repeat("a", questions.TextLimit+1)
	_, err = Validate(raw, set)
	requireFieldError(t, err, "question6_additionalExperience", TooLong)
}

func TestValidateOptionalTextMayBeEmpty(t *testing.T) {
	set := questionSet(t, "trading-v1")
	raw := validTrading()
	raw["question2_tradingGoals"] = ""

	got, err := Validate(raw, set)
	require.NoError(t, err)
	assert.Equal(t, "", got["question2_tradingGoals"])
}

func TestValidateUnknownAndMistypedFields(t *testing.T) {
	set := questionSet(t, "trading-v1")
	raw := validTrading()
	raw["question9_favoriteColor"] = "blue"
	raw["question1_tradingExperience"] = []any{"Beginner"}
	raw["question6_additionalExperience"] = 42.0

	_, err := Validate(raw, set)
	requireFieldError(t, err, "question9_favoriteColor", UnknownField)
	requireFieldError(t, err, "question1_tradingExperience", InvalidType)
	requireFieldError(t, err, "question6_additionalExperience", InvalidType)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "question9_favoriteColor", verr.Fields[len(verr.Fields)-1].Field, "unknown keys are reported last")
}

func TestValidateBareStringAndDuplicates(t *testing.T) {
	set := questionSet(t, "trading-v1")
	raw := validTrading()
	raw["question3_tradingStyle"] = "Scalping"
	raw["question4_informationSources"] = []string{
		"Historical data and statistics",
		"Expert analysis and predictions",
		"Historical data and statistics",
	}

	got, err := Validate(raw, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"Scalping"}, got.Selection("question3_tradingStyle"))
	assert.Equal(t, []string{
		"Historical data and statistics",
		"Expert analysis and predictions",
	}, got.Selection("question4_informationSources"))
}

func TestFormatKeepsSelectionOrder(t *testing.T) {
	assert.Equal(t, "Swing Trading, Day Trading", Format([]string{"Swing Trading", "Day Trading"}))
	assert.Equal(t, "Scalping", Format([]string{"Scalping"}))
	assert.Equal(t, "", Format(nil))
}

func TestFormatAllMatchesStoredSelections(t *testing.T) {
	set := questionSet(t, "trading-v1")
	got, err := Validate(validTrading(), set)
	require.NoError(t, err)

	formatted := FormatAll(got, set)
	assert.Equal(t, map[string]string{
		"question3_tradingStyle":       "Day Trading, Swing Trading",
		"question4_informationSources": "Historical data and statistics",
	}, formatted)
	for k, v := range formatted {
		assert.Equal(t, strings.Join(got.Selection(k), ", "), v)
	}
}

func TestParseFormattedHandlesCommasInOptions(t *testing.T) {
	set := questionSet(t, "sports-v2")
	q, ok := set.Question("question4_usefulInformation")
	require.True(t, ok)

	want := []string{
		"Recent performance, momentum, like last 10 games record etc.",
		"Sharp trader tendencies",
		"Odds specific factors, spread, and the reasons why sports books set them",
	}
	got, ok := ParseFormatted(Format(want), q.Options)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = ParseFormatted("Sharp trader tendencies, Vibes", q.Options)
	assert.False(t, ok)
}

func TestFromLegacyLayouts(t *testing.T) {
	set := questionSet(t, "trading-v1")

	nested := map[string]any{
		"userId": "u1",
		"responses": map[string]any{
			"question1_tradingExperience":        "Advanced",
			"question2_tradingGoals":             "Grow steadily",
			"question3_tradingStyle":             "Position Trading, Arbitrage",
			"question3_tradingStyle_array":       []any{"Position Trading", "Arbitrage"},
			"question4_informationSources":       "Historical data and statistics, Expert analysis and predictions",
			"question5_tradingFrequency":         "Weekly",
			"question6_additionalExperience":     "",
			"question4_informationSources_array": nil,
		},
	}
	got, err := Validate(FromLegacy(nested, set), set)
	require.NoError(t, err)
	assert.Equal(t, []string{"Position Trading", "Arbitrage"}, got.Selection("question3_tradingStyle"))
	assert.Equal(t, []string{"Historical data and statistics", "Expert analysis and predictions"}, got.Selection("question4_informationSources"))
	assert.Equal(t, "Grow steadily", got.Text("question2_tradingGoals"))

	flat := map[string]any{
		"userId":                       "u2",
		"question1_tradingExperience":  "Expert",
		"question3_tradingStyle":       []any{"Scalping"},
		"question4_informationSources": []any{"Betting odds and market movements"},
		"question5_tradingFrequency":   "Daily",
	}
	got, err = Validate(FromLegacy(flat, set), set)
	require.NoError(t, err)
	assert.Equal(t, "Expert", got.Text("question1_tradingExperience"))
	assert.Equal(t, []string{"Scalping"}, got.Selection("question3_tradingStyle"))
}
