package middleware

import (
	"errors"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/services"
)

const (
	HeaderUserID = "X-User-ID"

	tokenKey    = "user"
	identityKey = "identity"
)

// OptionalJWT verifies a bearer token when one is sent and leaves the
// request untouched otherwise.
func OptionalJWT(cfg *config.Config) fiber.Handler {
	if cfg.JWTSecret == "" {
		return func(c *fiber.Ctx) error {
			if hasBearer(c) {
				return unauthorized(c, "Unauthorized: token authentication is not configured")
			}
			return c.Next()
		}
	}
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(cfg.JWTSecret)},
		ContextKey: tokenKey,
		Filter:     func(c *fiber.Ctx) bool { return !hasBearer(c) },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c, "Unauthorized: invalid or expired token")
		},
	})
}

func hasBearer(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
}

// ResolveIdentity turns a verified token, or else an X-User-ID header,
// into the request identity. Requests with neither are anonymous.
func ResolveIdentity(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			id  services.Identity
			err error
		)
		if token, ok := c.Locals(tokenKey).(*jwt.Token); ok && token != nil {
			id, err = auth.ResolveToken(c.UserContext(), token)
		} else if userID := strings.TrimSpace(c.Get(HeaderUserID)); userID != "" {
			id, err = auth.ResolveUserID(c.UserContext(), userID)
		} else {
			id = services.Identity{Anonymous: true}
		}

		if errors.Is(err, services.ErrStorageUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: "Service temporarily unavailable",
			})
		}
		if err != nil {
			return unauthorized(c, "Unauthorized: unknown or suspended user")
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// GetIdentity returns the identity stored by ResolveIdentity.
func GetIdentity(c *fiber.Ctx) services.Identity {
	if id, ok := c.Locals(identityKey).(services.Identity); ok {
		return id
	}
	return services.Identity{Anonymous: true}
}

// RequireIdentity rejects anonymous requests.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetIdentity(c).Anonymous {
			return unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: msg})
}
