package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can submit onboarding answers under its own id.
type User struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	UserName               string    `json:"userName"`
	FirebaseUID            string    `json:"firebaseUid"`
	FirebaseSignInProvider string    `json:"firebaseSignInProvider"`
	IsEmailVerified        bool      `json:"isEmailVerified"`
	IsSuspended            bool      `json:"isSuspended"`
	Role                   string    `json:"role"`
	HasCompletedOnboarding bool      `json:"hasCompletedOnboarding"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}
