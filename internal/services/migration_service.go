package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/answers"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

type MigrationReport struct {
	Scanned  int             `json:"scanned"`
	Migrated int             `json:"migrated"`
	DryRun   bool            `json:"dryRun"`
	Skipped  []SkippedLegacy `json:"skipped"`
}

type SkippedLegacy struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// MigrationService rewrites documents stored in earlier layouts into the
// nested answers/formattedAnswers shape.
type MigrationService struct {
	store store.LegacyMigrator
	set   *questions.Set
	now   func() time.Time
}

func NewMigrationService(st store.LegacyMigrator, set *questions.Set) *MigrationService {
	return &MigrationService{store: st, set: set, now: time.Now}
}

func (m *MigrationService) Run(ctx context.Context, dryRun bool) (*MigrationReport, error) {
	docs, err := m.store.LegacyResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load legacy documents: %w", err)
	}

	report := &MigrationReport{Scanned: len(docs), DryRun: dryRun, Skipped: []SkippedLegacy{}}
	for _, doc := range docs {
		resp, reason := m.convert(doc)
		if resp == nil {
			report.Skipped = append(report.Skipped, SkippedLegacy{ID: doc.ID, Reason: reason})
			slog.WarnContext(ctx, "legacy onboarding skipped", "id", doc.ID, "reason", reason)
			continue
		}
		if !dryRun {
			if err := m.store.ReplaceLegacy(ctx, doc.ID, resp); err != nil {
				return report, fmt.Errorf("replace %s: %w", doc.ID, err)
			}
		}
		report.Migrated++
	}

	slog.InfoContext(ctx, "legacy migration finished",
		"scanned", report.Scanned,
		"migrated", report.Migrated,
		"skipped", len(report.Skipped),
		"dry_run", dryRun,
	)
	return report, nil
}

func (m *MigrationService) convert(doc models.LegacyResponse) (*models.OnboardingResponse, string) {
	userID, _ := doc.Raw["userId"].(string)
	if userID == "" {
		return nil, "missing userId"
	}
	clean, err := answers.Validate(answers.FromLegacy(doc.Raw, m.set), m.set)
	if err != nil {
		return nil, err.Error()
	}

	now := m.now().UTC()
	createdAt, ok := doc.Raw["createdAt"].(time.Time)
	if !ok || createdAt.IsZero() {
		createdAt = now
	}
	username, _ := doc.Raw["username"].(string)

	return &models.OnboardingResponse{
		UserID:           userID,
		Username:         username,
		QuestionSet:      m.set.Version,
		Answers:          clean,
		FormattedAnswers: answers.FormatAll(clean, m.set),
		CreatedAt:        createdAt.UTC(),
		UpdatedAt:        now,
	}, ""
}
