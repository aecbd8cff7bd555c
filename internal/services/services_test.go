package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/answers"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store/memstore"
)

var errDown = errors.New("connection refused")

// downStore fails every response write and read.
type downStore struct {
	*memstore.Store
}

func (downStore) Insert(context.Context, *models.OnboardingResponse) (string, error) {
	return "", errDown
}

func (downStore) Upsert(context.Context, *models.OnboardingResponse) (*models.OnboardingResponse, error) {
	return nil, errDown
}

func (downStore) Count(context.Context) (int64, error) { return 0, errDown }

func tradingSet(t *testing.T) *questions.Set {
	t.Helper()
	r, err := questions.Default()
	require.NoError(t, err)
	set, err := r.Get("trading-v1")
	require.NoError(t, err)
	return set
}

func tradingAnswers(experience string) map[string]any {
	return map[string]any{
		"question1_tradingExperience":  experience,
		"question3_tradingStyle":       []any{"Day Trading", "Swing Trading"},
		"question4_informationSources": []any{"Historical data and statistics"},
		"question5_tradingFrequency":   "Daily",
	}
}

// tick returns a clock that advances one second per call.
func tick(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func registerUser(t *testing.T, st *memstore.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@x.io", UserName: name, FirebaseUID: "fb-" + name, Role: models.RoleUser}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func TestSubmitUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	user := registerUser(t, st, "sarah")
	svc := NewSubmissionService(st, tradingSet(t), PolicyUpsert,
		WithClock(tick(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))

	sub := Submission{Identity: identityFor(user), Answers: tradingAnswers("Beginner")}
	first, err := svc.Submit(ctx, sub)
	require.NoError(t, err)
	second, err := svc.Submit(ctx, sub)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	list, total, err := st.FindByUser(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	stored := list[0]
	assert.Equal(t, first.Response.Answers, stored.Answers)
	assert.Equal(t, first.Response.FormattedAnswers, stored.FormattedAnswers)
	assert.Equal(t, first.Response.CreatedAt, stored.CreatedAt)
	assert.True(t, stored.UpdatedAt.After(first.Response.UpdatedAt))
	assert.Equal(t, "Day Trading, Swing Trading", stored.FormattedAnswers["question3_tradingStyle"])
	assert.Equal(t, "sarah", stored.Username)

	u, err := st.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, u.HasCompletedOnboarding)
}

func TestSubmitInsertPolicyAppends(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewSubmissionService(st, tradingSet(t), PolicyInsert,
		WithClock(tick(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))

	id := Identity{UserID: "u1", Anonymous: true}
	a, err := svc.Submit(ctx, Submission{Identity: id, Answers: tradingAnswers("Beginner")})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, Submission{Identity: id, Answers: tradingAnswers("Expert")})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	latest, err := svc.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, latest.ID)
}

func TestSubmitAnonymousGetsGeneratedUser(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	svc := NewSubmissionService(memstore.New(), tradingSet(t), PolicyUpsert,
		WithClock(func() time.Time { return at }),
		WithUserIDGenerator(func() string { return "generated-1" }))

	res, err := svc.Submit(context.Background(), Submission{
		Identity: Identity{Anonymous: true},
		Answers:  tradingAnswers("Beginner"),
	})
	require.NoError(t, err)
	assert.Equal(t, "generated-1", res.UserID)
	assert.True(t, res.Persisted)
	assert.Equal(t, fmt.Sprintf("user_%d", at.UnixMilli()), res.Response.Username)
	assert.Equal(t, "trading-v1", res.Response.QuestionSet)
}

func TestSubmitInvalidOptionWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewSubmissionService(st, tradingSet(t), PolicyUpsert)

	_, err := svc.Submit(ctx, Submission{Identity: Identity{Anonymous: true}, Answers: tradingAnswers("Guru")})
	var verr *answers.ValidationError
	require.ErrorAs(t, err, &verr)
	fe, ok := verr.Field("question1_tradingExperience")
	require.True(t, ok)
	assert.Equal(t, answers.InvalidOption, fe.Kind)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitStorageFailure(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	st := downStore{memstore.New()}
	sub := Submission{Identity: Identity{Anonymous: true}, Answers: tradingAnswers("Beginner")}

	svc := NewSubmissionService(st, tradingSet(t), PolicyUpsert)
	res, err := svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Nil(t, res)

	degraded := NewSubmissionService(st, tradingSet(t), PolicyInsert,
		WithDegradedMode(true),
		WithClock(func() time.Time { return at }))
	res, err = degraded.Submit(ctx, sub)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	require.NotNil(t, res)
	assert.Equal(t, fmt.Sprintf("temp-%d", at.UnixMilli()), res.ID)
	assert.False(t, res.Persisted)
	assert.NotEmpty(t, res.UserID)
}

func TestListByUserPaging(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewSubmissionService(st, tradingSet(t), PolicyInsert,
		WithClock(tick(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, Submission{Identity: Identity{UserID: "u1", Anonymous: true}, Answers: tradingAnswers("Beginner")})
		require.NoError(t, err)
	}

	list, total, err := svc.ListByUser(ctx, "u1", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 1)

	for _, bad := range [][2]int{{0, 10}, {1, 0}, {1, 101}} {
		_, _, err := svc.ListByUser(ctx, "u1", bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Latest(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsCountsPerQuestion(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	set := tradingSet(t)
	svc := NewSubmissionService(st, set, PolicyInsert)
	for _, level := range []string{"Beginner", "Beginner", "Expert"} {
		_, err := svc.Submit(ctx, Submission{Identity: Identity{Anonymous: true}, Answers: tradingAnswers(level)})
		require.NoError(t, err)
	}

	stats, err := NewStatsService(st, set).Compute(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOnboardings)
	assert.Equal(t, "trading-v1", stats.QuestionSet)
	require.Len(t, stats.Distributions, 4)
	assert.Equal(t, []models.ValueCount{{Value: "Beginner", Count: 2}, {Value: "Expert", Count: 1}}, stats.Distributions[0].Counts)

	one, err := NewStatsService(st, set).Compute(ctx, "question3_tradingStyle")
	require.NoError(t, err)
	require.Len(t, one.Distributions, 1)
	assert.Equal(t, questions.KindMultiple, one.Distributions[0].Type)
	assert.Equal(t, []models.ValueCount{{Value: "Day Trading", Count: 3}, {Value: "Swing Trading", Count: 3}}, one.Distributions[0].Counts)

	_, err = NewStatsService(st, set).Compute(ctx, "question2_tradingGoals")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	_, err = NewStatsService(st, set).Compute(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = NewStatsService(downStore{memstore.New()}, set).Compute(ctx, "")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAuthRegisterLoginResolve(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Hour}
	auth := NewAuthService(st, cfg)

	user, err := auth.Register(ctx, &dto.RegisterRequest{Email: "Alex@Example.com", UserName: "alex", FirebaseUID: "fb-alex"})
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)

	_, err = auth.Register(ctx, &dto.RegisterRequest{Email: "alex@example.com", UserName: "alex2", FirebaseUID: "fb-alex"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = auth.Register(ctx, &dto.RegisterRequest{Email: "not-an-email", UserName: "x", FirebaseUID: "fb-x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = auth.Login(ctx, &dto.LoginRequest{FirebaseUID: "fb-unknown"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	resp, err := auth.Login(ctx, &dto.LoginRequest{FirebaseUID: "fb-alex"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (any, error) { return []byte(cfg.JWTSecret), nil })
	require.NoError(t, err)
	id, err := auth.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, "alex", id.Username)
	assert.False(t, id.Anonymous)
	assert.False(t, id.IsAdmin())

	_, err = auth.ResolveUserID(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMigrationRewritesLegacyDocuments(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	set := tradingSet(t)
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	nestedID := st.AddLegacy(map[string]any{
		"userId":    "legacy-1",
		"username":  "old_timer",
		"createdAt": created,
		"responses": map[string]any{
			"question1_tradingExperience":  "Advanced",
			"question3_tradingStyle":       "Position Trading, Arbitrage",
			"question3_tradingStyle_array": []any{"Position Trading", "Arbitrage"},
			"question4_informationSources": "Historical data and statistics",
			"question5_tradingFrequency":   "Weekly",
		},
	})
	st.AddLegacy(map[string]any{
		"userId":                       "legacy-2",
		"question1_tradingExperience":  "Guru",
		"question3_tradingStyle":       "Scalping",
		"question4_informationSources": "Historical data and statistics",
		"question5_tradingFrequency":   "Daily",
	})
	st.AddLegacy(map[string]any{"question1_tradingExperience": "Beginner"})

	svc := NewMigrationService(st, set)

	dry, err := svc.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, dry.Scanned)
	assert.Equal(t, 1, dry.Migrated)
	assert.Len(t, dry.Skipped, 2)
	n, _ := st.Count(ctx)
	assert.Zero(t, n)

	report, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, "missing userId", report.Skipped[1].Reason)

	got, err := st.FindByID(ctx, nestedID)
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", got.UserID)
	assert.Equal(t, "old_timer", got.Username)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, []string{"Position Trading", "Arbitrage"}, got.Answers.Selection("question3_tradingStyle"))
	assert.Equal(t, "Position Trading, Arbitrage", got.FormattedAnswers["question3_tradingStyle"])

	again, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Scanned)
	assert.Zero(t, again.Migrated)
}
