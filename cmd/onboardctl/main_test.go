package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		setVersion, statsQuestion, dryRun = "", "", false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestQuestionsPrintsYAML(t *testing.T) {
	out := run(t, "questions", "--version", "sports-v2")

	var doc struct {
		QuestionSets []struct {
			Version   string `yaml:"version"`
			Questions []struct {
				Key string `yaml:"key"`
			} `yaml:"questions"`
		} `yaml:"questionSets"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.QuestionSets, 1)
	assert.Equal(t, "sports-v2", doc.QuestionSets[0].Version)
	assert.Equal(t, "question1_favoriteSports", doc.QuestionSets[0].Questions[0].Key)
}

func TestMigrateAndCollectionsOnMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SUBMISSION_POLICY", "upsert")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, "migrate", "--dry-run")), &report))
	assert.EqualValues(t, 0, report["scanned"])
	assert.Equal(t, true, report["dryRun"])

	out := run(t, "collections")
	assert.Contains(t, out, "memory")
	assert.Contains(t, out, "onboarding")

	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, "stats", "--question", "question1_tradingExperience")), &stats))
	assert.EqualValues(t, 0, stats["totalOnboardings"])
}
