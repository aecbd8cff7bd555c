package pgstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
)

// ResponseRow is the onboarding table. Answers and formatted answers are
// JSONB so the grouping queries can unnest selections in SQL.
type ResponseRow struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID           string         `gorm:"size:64;not null;index:idx_onboarding_user;index:idx_onboarding_user_created,priority:1"`
	Username         string         `gorm:"size:255"`
	QuestionSet      string         `gorm:"size:64"`
	Answers          datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	FormattedAnswers datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt        time.Time      `gorm:"not null;index;index:idx_onboarding_user_created,priority:2,sort:desc"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

func (ResponseRow) TableName() string { return "onboarding" }

func (r *ResponseRow) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func toResponseRow(r *models.OnboardingResponse) (*ResponseRow, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	formatted, err := json.Marshal(r.FormattedAnswers)
	if err != nil {
		return nil, fmt.Errorf("encode formatted answers: %w", err)
	}
	return &ResponseRow{
		UserID:           r.UserID,
		Username:         r.Username,
		QuestionSet:      r.QuestionSet,
		Answers:          datatypes.JSON(answers),
		FormattedAnswers: datatypes.JSON(formatted),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

func (r *ResponseRow) model() (models.OnboardingResponse, error) {
	out := models.OnboardingResponse{
		ID:          r.ID.String(),
		UserID:      r.UserID,
		Username:    r.Username,
		QuestionSet: r.QuestionSet,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	var answers map[string]any
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &answers); err != nil {
			return out, fmt.Errorf("decode answers of %s: %w", r.ID, err)
		}
	}
	out.Answers = models.NormalizeAnswers(answers)
	if len(r.FormattedAnswers) > 0 {
		if err := json.Unmarshal(r.FormattedAnswers, &out.FormattedAnswers); err != nil {
			return out, fmt.Errorf("decode formatted answers of %s: %w", r.ID, err)
		}
	}
	return out, nil
}

type UserRow struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email                  string    `gorm:"size:255;not null;uniqueIndex"`
	UserName               string    `gorm:"size:255;not null"`
	FirebaseUID            string    `gorm:"size:128;not null;uniqueIndex"`
	FirebaseSignInProvider string    `gorm:"size:64"`
	IsEmailVerified        bool      `gorm:"default:false"`
	IsSuspended            bool      `gorm:"default:false"`
	Role                   string    `gorm:"size:20;default:'user'"`
	HasCompletedOnboarding bool      `gorm:"default:false"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (UserRow) TableName() string { return "users" }

func toUserRow(u *models.User) *UserRow {
	return &UserRow{
		ID:                     uuid.New(),
		Email:                  u.Email,
		UserName:               u.UserName,
		FirebaseUID:            u.FirebaseUID,
		FirebaseSignInProvider: u.FirebaseSignInProvider,
		IsEmailVerified:        u.IsEmailVerified,
		IsSuspended:            u.IsSuspended,
		Role:                   u.Role,
		HasCompletedOnboarding: u.HasCompletedOnboarding,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func (r *UserRow) model() *models.User {
	return &models.User{
		ID:                     r.ID.String(),
		Email:                  r.Email,
		UserName:               r.UserName,
		FirebaseUID:            r.FirebaseUID,
		FirebaseSignInProvider: r.FirebaseSignInProvider,
		IsEmailVerified:        r.IsEmailVerified,
		IsSuspended:            r.IsSuspended,
		Role:                   r.Role,
		HasCompletedOnboarding: r.HasCompletedOnboarding,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}
