// Package store defines the persistence gateway the services talk to. The
// engines live in the mongostore, pgstore and memstore subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// ResponseStore persists onboarding responses. Implementations keep the
// timestamps set by the caller.
type ResponseStore interface {
	// Insert always writes a new document and returns its id.
	Insert(ctx context.Context, resp *models.OnboardingResponse) (string, error)
	// Upsert replaces the answers of the document for resp.UserID, or
	// inserts it. CreatedAt is only written on insert. It returns the
	// stored document.
	Upsert(ctx context.Context, resp *models.OnboardingResponse) (*models.OnboardingResponse, error)
	FindByID(ctx context.Context, id string) (*models.OnboardingResponse, error)
	// FindByUser returns one page of a user's responses, newest first, and
	// the user's total.
	FindByUser(ctx context.Context, userID string, skip, limit int) ([]models.OnboardingResponse, int64, error)
	Recent(ctx context.Context, limit int) ([]models.OnboardingResponse, error)
	Count(ctx context.Context) (int64, error)
	// CountByAnswer groups responses by the answer to key, most frequent
	// first. With multi set, every selected option counts once.
	CountByAnswer(ctx context.Context, key string, multi bool) ([]models.ValueCount, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	MarkOnboardingComplete(ctx context.Context, id string, at time.Time) error
}

// LogSink receives batches of error logs.
type LogSink interface {
	WriteLogs(ctx context.Context, logs []models.SystemLog) error
	PurgeLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Inspector interface {
	Ping(ctx context.Context) error
	Describe(ctx context.Context) (*models.DatabaseInfo, error)
}

// LegacyMigrator is implemented by engines that may hold documents written
// before answers were stored in the nested canonical layout.
type LegacyMigrator interface {
	LegacyResponses(ctx context.Context) ([]models.LegacyResponse, error)
	ReplaceLegacy(ctx context.Context, id string, resp *models.OnboardingResponse) error
}

// Store is everything a running server needs from one engine.
type Store interface {
	ResponseStore
	UserStore
	LogSink
	Inspector
	Close(ctx context.Context) error
}
