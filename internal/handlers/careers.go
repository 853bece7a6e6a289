package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/maison/internal/services"
)

// maxResumeSize bounds the decoded resume attachment.
const maxResumeSize = 10 << 20

// ApplicationMailer delivers job applications to the careers inbox.
type ApplicationMailer interface {
	SendJobApplication(ctx context.Context, to string, app services.JobApplication) (string, error)
}

// ApplicationNotifier tells staff about new applications.
type ApplicationNotifier interface {
	NotifyJobApplication(ctx context.Context, app services.JobApplication) error
}

// CareersHandler accepts job applications from the public careers page.
type CareersHandler struct {
	mail     ApplicationMailer
	notifier ApplicationNotifier
	inbox    string
	log      *zap.Logger
}

// NewCareersHandler constructs CareersHandler.
func NewCareersHandler(mail ApplicationMailer, notifier ApplicationNotifier, inbox string, log *zap.Logger) *CareersHandler {
	return &CareersHandler{mail: mail, notifier: notifier, inbox: inbox, log: log.Named("careers")}
}

type applicationRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Position       string `json:"position"`
	CoverLetter    string `json:"coverLetter"`
	ResumeBase64   string `json:"resumeBase64"`
	ResumeFilename string `json:"resumeFilename"`
}

// Apply validates the application and emails it to the careers inbox.
func (h *CareersHandler) Apply(c *fiber.Ctx) error {
	var req applicationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	app := services.JobApplication{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Position:       strings.TrimSpace(req.Position),
		CoverLetter:    strings.TrimSpace(req.CoverLetter),
		ResumeBase64:   stripDataURL(req.ResumeBase64),
		ResumeFilename: req.ResumeFilename,
	}
	if app.Name == "" || app.Email == "" || app.Phone == "" || app.Position == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
	}
	if _, err := mail.ParseAddress(app.Email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid email address")
	}
	if app.ResumeBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(app.ResumeBase64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Resume must be base64 encoded")
		}
		if len(decoded) > maxResumeSize {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Resume must be at most 10 MB")
		}
	}

	ctx := c.UserContext()
	id, err := h.mail.SendJobApplication(ctx, h.inbox, app)
	if err != nil {
		h.log.Error("job application email failed", zap.String("position", app.Position), zap.Error(err))
		if errors.Is(err, services.ErrEmailNotConfigured) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Applications are temporarily unavailable")
		}
		return fiber.NewError(fiber.StatusBadGateway, "Failed to send application")
	}
	h.log.Info("job application sent", zap.String("email_id", id), zap.String("position", app.Position))

	if h.notifier != nil {
		if err := h.notifier.NotifyJobApplication(ctx, app); err != nil {
			h.log.Warn("job application notification failed", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// stripDataURL drops a "data:<mime>;base64," prefix browsers add when files
// are read with FileReader.readAsDataURL.
func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
