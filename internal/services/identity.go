package services

import "github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"

// Identity is the resolved caller of a request. An anonymous identity has
// no user record behind it.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	Role      string
	Anonymous bool
}

func identityFor(u *models.User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.UserName,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func (i Identity) IsAdmin() bool {
	return !i.Anonymous && i.Role == models.RoleAdmin
}
