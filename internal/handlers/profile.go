package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maison/internal/loyalty"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
)

// maxAvatarSize bounds avatar uploads.
const maxAvatarSize = 5 << 20

// ProfileWriter persists profile fields outside the customer-editable set.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields store.ProfileFields) error
}

// ObjectStorage stores uploaded files.
type ObjectStorage interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	PublicURL(key string) string
}

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	registry *storefront.Registry
	profiles ProfileWriter
	storage  ObjectStorage
	log      *zap.Logger
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(registry *storefront.Registry, profiles ProfileWriter, storage ObjectStorage, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{registry: registry, profiles: profiles, storage: storage, log: log.Named("profile")}
}

// GetProfile returns the loyalty profile with tier progress.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	profile := ws.Loyalty.Profile()
	if profile == nil {
		return fiber.NewError(fiber.StatusNotFound, "profile not found")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"profile":  profile,
		"progress": ws.Loyalty.TierProgress(),
	}, ws)
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// UpdateProfile updates the customer-editable profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !ws.Loyalty.UpdateProfile(c.UserContext(), loyalty.ProfileUpdate{FullName: req.FullName, Phone: req.Phone}) {
		return respond(c, fiber.StatusUnprocessableEntity, ws.Loyalty.Profile(), ws)
	}
	return respond(c, fiber.StatusOK, ws.Loyalty.Profile(), ws)
}

// UploadAvatar stores the "avatar" multipart file and links it to the profile.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "avatar file is required")
	}
	if header.Size > maxAvatarSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "avatar must be at most 5 MB")
	}

	file, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable upload")
	}
	defer file.Close()

	ctx := c.UserContext()
	key, err := h.storage.Upload(ctx, "avatars", header.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFile) {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, "avatar must be an image")
		}
		return err
	}

	url := h.storage.PublicURL(key)
	userID := ws.Sessions.Current().UserID
	if err := h.profiles.UpdateProfile(ctx, userID, store.ProfileFields{AvatarURL: &url}); err != nil {
		return err
	}
	h.log.Info("avatar updated", zap.Stringer("user_id", userID), zap.String("key", key))

	ws.Loyalty.Refresh(ctx)
	return respond(c, fiber.StatusOK, fiber.Map{"avatar_url": url}, ws)
}
