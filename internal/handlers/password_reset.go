package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

// ResetCodeTTL is how long an emailed reset code stays valid.
const ResetCodeTTL = 10 * time.Minute

// ResetStore is the storage used by the password-reset flow.
type ResetStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	FindResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	SaveResetToken(ctx context.Context, token *models.PasswordResetToken) error
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
}

// ResetMailer delivers reset codes.
type ResetMailer interface {
	SendPasswordResetCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	store ResetStore
	mail  ResetMailer
	// exposeCode returns the code in the response when email delivery is
	// not configured. Never set in production.
	exposeCode bool
	log        *zap.Logger
	now        func() time.Time
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(s ResetStore, mail ResetMailer, exposeCode bool, log *zap.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{store: s, mail: mail, exposeCode: exposeCode, log: log.Named("password_reset"), now: time.Now}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword emails a 6-digit code to the account owner and returns the
// opaque token that identifies this reset attempt.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if store.NormalizeEmail(req.Email) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	ctx := c.UserContext()
	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	code, err := utils.GenerateCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}
	codeHash, err := utils.HashPassword(code)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}
	token, err := utils.RandomToken(32)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	record := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		CodeHash:  codeHash,
		ExpiresAt: h.now().Add(ResetCodeTTL),
	}
	if err := h.store.CreateResetToken(ctx, &record); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	resp := fiber.Map{"token": token, "expires_at": record.ExpiresAt}
	if err := h.mail.SendPasswordResetCode(ctx, user.Email, code, ResetCodeTTL); err != nil {
		if !errors.Is(err, services.ErrEmailNotConfigured) || !h.exposeCode {
			h.log.Error("reset code delivery failed", zap.Stringer("user_id", user.ID), zap.Error(err))
			return fiber.NewError(fiber.StatusBadGateway, "failed to send reset code")
		}
		h.log.Warn("email not configured, returning reset code in response")
		resp["code"] = code
	}

	return respond(c, fiber.StatusOK, resp, nil)
}

type verifyResetCodeRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// VerifyResetCode checks the emailed code against the pending token.
func (h *PasswordResetHandler) VerifyResetCode(c *fiber.Ctx) error {
	var req verifyResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and code are required")
	}

	record, err := h.pending(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(record.CodeHash, req.Code) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
	}

	record.Verified = true
	if err := h.store.SaveResetToken(c.UserContext(), record); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, fiber.Map{"verified": true, "token": record.Token}, nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword updates the user's password after successful code verification.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and new_password are required")
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	record, err := h.pending(ctx, req.Token)
	if err != nil {
		return err
	}
	if !record.Verified {
		return fiber.NewError(fiber.StatusBadRequest, "code not verified yet")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}
	if err := h.store.SetPasswordHash(ctx, record.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	now := h.now()
	record.UsedAt = &now
	if err := h.store.SaveResetToken(ctx, record); err != nil {
		h.log.Warn("failed to mark reset token used", zap.Error(err))
	}

	return respond(c, fiber.StatusOK, fiber.Map{"message": "password updated successfully"}, nil)
}

func (h *PasswordResetHandler) pending(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	record, err := h.store.FindResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "invalid reset token")
		}
		return nil, err
	}
	if record.UsedAt != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "token already used")
	}
	if record.ExpiresAt.Before(h.now()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "token expired")
	}
	return record, nil
}
