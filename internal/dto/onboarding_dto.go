package dto

import (
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
)

type SubmitResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	UserID  string `json:"userId"`
}

// StorageErrorResponse is sent with 503. Placeholder is only set in
// degraded mode and was not saved.
type StorageErrorResponse struct {
	Error       string       `json:"error"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`
}

type Placeholder struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Persisted bool   `json:"persisted"`
}

type OnboardingResponse struct {
	Onboarding *models.OnboardingResponse `json:"onboarding"`
}

type RecentResponse struct {
	Total       int                         `json:"total"`
	Onboardings []models.OnboardingResponse `json:"onboardings"`
}

type UserOnboardingsResponse struct {
	Onboardings []models.OnboardingResponse `json:"onboardings"`
	Pagination  Pagination                  `json:"pagination"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type StatsResponse struct {
	TotalOnboardings int64          `json:"totalOnboardings"`
	QuestionSet      string         `json:"questionSet"`
	Distributions    []Distribution `json:"distributions"`
}

type Distribution struct {
	Question string              `json:"question"`
	Type     questions.Kind      `json:"type"`
	Counts   []models.ValueCount `json:"counts"`
}
