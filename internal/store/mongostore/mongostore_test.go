package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
)

func stageNames(p []bson.D) []string {
	out := make([]string, len(p))
	for i, stage := range p {
		out[i] = stage[0].Key
	}
	return out
}

func TestCountPipelineSingleChoice(t *testing.T) {
	p := countPipeline("question1_tradingExperience", false)
	assert.Equal(t, []string{"$match", "$group", "$sort"}, stageNames(p))

	group := p[1][0].Value.(bson.D)
	assert.Equal(t, "$answers.question1_tradingExperience", group[0].Value)
}

func TestCountPipelineUnwindsMultiChoice(t *testing.T) {
	p := countPipeline("question3_tradingStyle", true)
	assert.Equal(t, []string{"$match", "$unwind", "$group", "$sort"}, stageNames(p))
	assert.Equal(t, "$answers.question3_tradingStyle", p[1][0].Value)

	sort := p[3][0].Value.(bson.D)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}}, sort)
}

func TestIDFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	f := idFilter(oid.Hex())
	in := f["_id"].(bson.M)["$in"].(bson.A)
	assert.Equal(t, oid, in[0])
	assert.Equal(t, oid.Hex(), in[1])

	assert.Equal(t, bson.M{"_id": "sample_001"}, idFilter("sample_001"))
}

func TestResponseDocRoundTripNormalizesArrays(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := &models.OnboardingResponse{
		UserID:      "u1",
		Username:    "john_trader",
		QuestionSet: "trading-v1",
		Answers: models.Answers{
			"question1_tradingExperience": "Beginner",
			"question3_tradingStyle":      []string{"Day Trading", "Swing Trading"},
		},
		FormattedAnswers: map[string]string{"question3_tradingStyle": "Day Trading, Swing Trading"},
		CreatedAt:        at,
		UpdatedAt:        at,
	}

	raw, err := bson.Marshal(toResponseDoc(in))
	require.NoError(t, err)

	var doc responseDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	doc.ID = primitive.NewObjectID()

	out := doc.model()
	assert.Len(t, out.ID, 24)
	assert.Equal(t, []string{"Day Trading", "Swing Trading"}, out.Answers.Selection("question3_tradingStyle"))
	assert.Equal(t, "Beginner", out.Answers.Text("question1_tradingExperience"))
	assert.Equal(t, in.FormattedAnswers, out.FormattedAnswers)
	assert.True(t, at.Equal(out.CreatedAt))
}

func TestPlainFlattensDriverTypes(t *testing.T) {
	in := bson.M{
		"_id": "legacy_1",
		"responses": bson.D{
			{Key: "question3_tradingStyle_array", Value: bson.A{"Scalping"}},
		},
	}
	out, ok := plain(in).(map[string]any)
	require.True(t, ok)
	nested, ok := out["responses"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Scalping"}, nested["question3_tradingStyle_array"])
}
