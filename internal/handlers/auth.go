package handlers

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

// UserStore is the account storage used by AuthHandler.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User, fullName, phone string) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	users    UserStore
	registry *storefront.Registry
	cfg      *config.Config
	log      *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users UserStore, registry *storefront.Registry, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, registry: registry, cfg: cfg, log: log.Named("auth")}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Register creates a new user account with an empty loyalty profile.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{Email: email, PasswordHash: passwordHash}
	if err := h.users.CreateUser(c.UserContext(), &user, strings.TrimSpace(req.FullName), strings.TrimSpace(req.Phone)); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return fiber.NewError(fiber.StatusConflict, "user already exists")
		}
		return err
	}
	h.log.Info("user registered", zap.Stringer("user_id", user.ID))

	return h.issueToken(c, fiber.StatusCreated, &user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.FindUserByEmail(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	return h.issueToken(c, fiber.StatusOK, user)
}

// Logout signs the caller out and discards their storefront state. It does
// not revoke the token: a later request carrying it acquires a fresh
// workspace and re-fetches wishlist and loyalty.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	h.registry.Release(c.UserContext(), userID)
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, status int, user *models.User) error {
	token, expiresAt, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Email, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":       userResponse(user),
			"token":      token,
			"expires_at": expiresAt,
		},
	})
}

func userResponse(user *models.User) fiber.Map {
	resp := fiber.Map{
		"id":       user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	}
	if user.Profile != nil {
		resp["full_name"] = user.Profile.FullName
	}
	return resp
}

// parseID reads a uuid route parameter.
func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}
