package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/answers"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

// Policy selects how a submission is written. A deployment uses one.
type Policy string

const (
	PolicyInsert Policy = "insert"
	PolicyUpsert Policy = "upsert"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyInsert, PolicyUpsert:
		return p, nil
	}
	return "", fmt.Errorf("unknown submission policy %q", s)
}

// SubmissionStore is the part of the gateway the submission flow needs.
type SubmissionStore interface {
	store.ResponseStore
	MarkOnboardingComplete(ctx context.Context, id string, at time.Time) error
}

type Submission struct {
	Identity Identity
	// Username overrides the identity's display name when set.
	Username string
	Answers  map[string]any
}

type SubmitResult struct {
	ID        string
	UserID    string
	Persisted bool
	Response  *models.OnboardingResponse
}

type SubmissionService struct {
	store       SubmissionStore
	set         *questions.Set
	policy      Policy
	degraded    bool
	recentLimit int

	now       func() time.Time
	newUserID func() string
}

type SubmissionOption func(*SubmissionService)

// WithDegradedMode makes Submit return a non-durable placeholder alongside
// ErrStorageUnavailable when the store fails.
func WithDegradedMode(on bool) SubmissionOption {
	return func(s *SubmissionService) { s.degraded = on }
}

func WithRecentLimit(n int) SubmissionOption {
	return func(s *SubmissionService) { s.recentLimit = n }
}

func WithClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

func WithUserIDGenerator(gen func() string) SubmissionOption {
	return func(s *SubmissionService) { s.newUserID = gen }
}

func NewSubmissionService(st SubmissionStore, set *questions.Set, policy Policy, opts ...SubmissionOption) *SubmissionService {
	s := &SubmissionService{
		store:       st,
		set:         set,
		policy:      policy,
		recentLimit: 50,
		now:         time.Now,
		newUserID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SubmissionService) QuestionSet() *questions.Set {
	return s.set
}

// Submit validates, normalizes and persists one submission. Validation
// failures are returned as *answers.ValidationError and nothing is written.
func (s *SubmissionService) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	clean, err := answers.Validate(sub.Answers, s.set)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	userID := sub.Identity.UserID
	if userID == "" {
		userID = s.newUserID()
	}
	username := sub.Username
	if username == "" {
		username = sub.Identity.Username
	}
	if username == "" {
		username = fmt.Sprintf("user_%d", now.UnixMilli())
	}

	resp := &models.OnboardingResponse{
		UserID:           userID,
		Username:         username,
		QuestionSet:      s.set.Version,
		Answers:          clean,
		FormattedAnswers: answers.FormatAll(clean, s.set),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	switch s.policy {
	case PolicyInsert:
		id, err := s.store.Insert(ctx, resp)
		if err != nil {
			return s.failed(ctx, resp, err)
		}
		resp.ID = id
	default:
		stored, err := s.store.Upsert(ctx, resp)
		if err != nil {
			return s.failed(ctx, resp, err)
		}
		resp = stored
	}

	if !sub.Identity.Anonymous && sub.Identity.UserID != "" {
		if err := s.store.MarkOnboardingComplete(ctx, userID, now); err != nil {
			slog.WarnContext(ctx, "failed to mark onboarding complete", "user_id", userID, "error", err)
		}
	}

	slog.InfoContext(ctx, "onboarding saved", "id", resp.ID, "user_id", userID, "policy", string(s.policy))
	return &SubmitResult{ID: resp.ID, UserID: userID, Persisted: true, Response: resp}, nil
}

func (s *SubmissionService) failed(ctx context.Context, resp *models.OnboardingResponse, cause error) (*SubmitResult, error) {
	slog.ErrorContext(ctx, "failed to persist onboarding",
		"user_id", resp.UserID,
		"action", "onboarding.submit",
		"error", cause,
	)
	err := fmt.Errorf("%w: %v", ErrStorageUnavailable, cause)
	if !s.degraded {
		return nil, err
	}
	resp.ID = fmt.Sprintf("temp-%d", resp.CreatedAt.UnixMilli())
	return &SubmitResult{ID: resp.ID, UserID: resp.UserID, Response: resp}, err
}

func (s *SubmissionService) Get(ctx context.Context, id string) (*models.OnboardingResponse, error) {
	resp, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(ctx, "get onboarding", err)
	}
	return resp, nil
}

// ListByUser returns one page (1-based) of a user's responses, newest
// first, and the user's total.
func (s *SubmissionService) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.OnboardingResponse, int64, error) {
	if page < 1 || limit < 1 || limit > 100 {
		return nil, 0, fmt.Errorf("%w: page must be >= 1 and limit between 1 and 100", ErrInvalidInput)
	}
	list, total, err := s.store.FindByUser(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, storageErr(ctx, "list user onboardings", err)
	}
	return list, total, nil
}

// Latest returns the newest response of a user.
func (s *SubmissionService) Latest(ctx context.Context, userID string) (*models.OnboardingResponse, error) {
	list, _, err := s.store.FindByUser(ctx, userID, 0, 1)
	if err != nil {
		return nil, storageErr(ctx, "latest onboarding", err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (s *SubmissionService) Recent(ctx context.Context) ([]models.OnboardingResponse, error) {
	list, err := s.store.Recent(ctx, s.recentLimit)
	if err != nil {
		return nil, storageErr(ctx, "recent onboardings", err)
	}
	return list, nil
}

func storageErr(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, op+" failed", "error", err)
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
