package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/session"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

const (
	userContextKey    = "currentUserID"
	sessionContextKey = "currentSession"
)

// AuthMiddleware validates JWT tokens and loads the authenticated session into context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, claims.ID())
		c.Locals(sessionContextKey, session.Session{
			UserID:    claims.ID(),
			Email:     claims.Email,
			Token:     parts[1],
			ExpiresAt: claims.Expiry(),
		})
		return c.Next()
	}
}

// UserFinder loads accounts for RequireAdmin.
type UserFinder interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireAdmin rejects authenticated users without the admin flag. It must
// run after AuthMiddleware.
func RequireAdmin(users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		user, err := users.FindUser(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
			}
			return err
		}
		if !user.IsAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetCurrentSession returns the session built from the bearer token.
func GetCurrentSession(c *fiber.Ctx) (session.Session, bool) {
	s, ok := c.Locals(sessionContextKey).(session.Session)
	return s, ok && s.Authenticated()
}
