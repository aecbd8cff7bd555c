package questions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"sports-v2", "trading-v1"}, r.Versions())

	set, err := r.Get("trading-v1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"question1_tradingExperience",
		"question2_tradingGoals",
		"question3_tradingStyle",
		"question4_informationSources",
		"question5_tradingFrequency",
		"question6_additionalExperience",
	}, set.Keys())

	q, ok := set.Question("question3_tradingStyle")
	require.True(t, ok)
	assert.Equal(t, KindMultiple, q.Type)
	assert.True(t, q.Required)
	assert.True(t, q.HasOption("Swing Trading"))
	assert.False(t, q.HasOption("swing trading"))

	assert.Len(t, set.ChoiceQuestions(), 4)
}

func TestRegistryGetUnknown(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	_, err = r.Get("trading-v0")
	assert.ErrorContains(t, err, "unknown question set")
}

func TestParseRejectsBrokenSets(t *testing.T) {
	cases := map[string]string{
		"empty": `questionSets: []`,
		"no options": `
questionSets:
  - version: v1
    questions:
      - key: q1
        type: single`,
		"text with options": `
questionSets:
  - version: v1
    questions:
      - key: q1
        type: text
        options: [a]`,
		"duplicate key": `
questionSets:
  - version: v1
    questions:
      - key: q1
        type: text
      - key: q1
        type: text`,
		"duplicate option": `
questionSets:
  - version: v1
    questions:
      - key: q1
        type: multiple
        options: [a, a]`,
		"unknown type": `
questionSets:
  - version: v1
    questions:
      - key: q1
        type: slider`,
		"duplicate version": `
questionSets:
  - version: v1
    questions:
      - key: q1
        type: text
  - version: v1
    questions:
      - key: q1
        type: text`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets.yaml")
	doc := `
questionSets:
  - version: mini
    title: Mini
    questions:
      - key: color
        type: single
        required: true
        options: [red, blue]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := LoadFromFile(path)
	require.NoError(t, err)
	set, err := r.Get("mini")
	require.NoError(t, err)
	assert.Equal(t, "Mini", set.Title)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read question sets")
}
