package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

var ErrUserNotFound = errors.New("user not found")

type AuthService struct {
	users store.UserStore
	cfg   *config.Config
	now   func() time.Time
}

func NewAuthService(users store.UserStore, cfg *config.Config) *AuthService {
	return &AuthService{users: users, cfg: cfg, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.UserName = strings.TrimSpace(req.UserName)
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if req.UserName == "" || req.FirebaseUID == "" {
		return nil, fmt.Errorf("%w: userName and firebaseUid are required", ErrInvalidInput)
	}

	now := s.now().UTC()
	user := &models.User{
		Email:                  req.Email,
		UserName:               req.UserName,
		FirebaseUID:            req.FirebaseUID,
		FirebaseSignInProvider: req.FirebaseSignInProvider,
		IsEmailVerified:        req.IsEmailVerified,
		Role:                   models.RoleUser,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email or firebaseUid already registered", ErrConflict)
		}
		return nil, storageErr(ctx, "create user", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.FirebaseUID == "" {
		return nil, fmt.Errorf("%w: firebaseUid is required", ErrInvalidInput)
	}
	user, err := s.users.FindUserByFirebaseUID(ctx, req.FirebaseUID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr(ctx, "find user", err)
	}
	if user.IsSuspended {
		return nil, fmt.Errorf("%w: account suspended", ErrUnauthorized)
	}

	token, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ResolveToken maps a verified access token to the identity of its
// subject.
func (s *AuthService) ResolveToken(ctx context.Context, token *jwt.Token) (Identity, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid claims", ErrUnauthorized)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return s.ResolveUserID(ctx, sub)
}

// ResolveUserID maps a user id supplied by the caller to its identity.
// Unknown and suspended users are rejected.
func (s *AuthService) ResolveUserID(ctx context.Context, id string) (Identity, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	if err != nil {
		return Identity{}, storageErr(ctx, "resolve user", err)
	}
	if user.IsSuspended {
		return Identity{}, fmt.Errorf("%w: account suspended", ErrUnauthorized)
	}
	return identityFor(user), nil
}
