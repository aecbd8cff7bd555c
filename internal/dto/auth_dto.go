package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
)

type RegisterRequest struct {
	Email                  string `json:"email"`
	UserName               string `json:"userName"`
	FirebaseUID            string `json:"firebaseUid"`
	FirebaseSignInProvider string `json:"firebaseSignInProvider"`
	IsEmailVerified        bool   `json:"isEmailVerified"`
}

type LoginRequest struct {
	FirebaseUID string `json:"firebaseUid"`
}

type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	UserName               string `json:"userName"`
	Role                   string `json:"role"`
	HasCompletedOnboarding bool   `json:"hasCompletedOnboarding"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                     u.ID,
		Email:                  u.Email,
		UserName:               u.UserName,
		Role:                   u.Role,
		HasCompletedOnboarding: u.HasCompletedOnboarding,
	}
}

type ErrorResponse struct {
	Error   string        `json:"error"`
	Kind    string        `json:"kind,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	DB          string `json:"db"`
}
