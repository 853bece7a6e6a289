package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmailNotConfigured is returned when no Resend API key is set.
var ErrEmailNotConfigured = errors.New("email delivery is not configured")

// EmailService sends transactional email through the Resend API.
type EmailService struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
	log     *zap.Logger
}

// NewEmailService creates an EmailService. baseURL is the API root, e.g.
// https://api.resend.com.
func NewEmailService(apiKey, baseURL, from string, log *zap.Logger) *EmailService {
	return &EmailService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		from:    from,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.Named("email"),
	}
}

// Attachment is a file attached to an email. Content is base64 encoded.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Email is one outgoing message.
type Email struct {
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	ReplyTo     []string     `json:"reply_to,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type resendRequest struct {
	From string `json:"from"`
	Email
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Send delivers msg and returns the provider's message id.
func (s *EmailService) Send(ctx context.Context, msg Email) (string, error) {
	if s.apiKey == "" {
		return "", ErrEmailNotConfigured
	}

	body, err := json.Marshal(resendRequest{From: s.from, Email: msg})
	if err != nil {
		return "", fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute email request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read email response: %w", err)
	}

	var parsed resendResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("email rejected", zap.Int("status", resp.StatusCode), zap.String("name", parsed.Name))
		if parsed.Message != "" {
			return "", fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, parsed.Message)
		}
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	s.log.Info("email sent", zap.String("id", parsed.ID), zap.String("subject", msg.Subject))
	return parsed.ID, nil
}

// JobApplication is a careers form submission.
type JobApplication struct {
	Name           string
	Email          string
	Phone          string
	Position       string
	CoverLetter    string
	ResumeBase64   string
	ResumeFilename string
}

var jobApplicationTemplate = template.Must(template.New("job_application").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1a1a1a;">
  <h2 style="font-weight: 400; letter-spacing: 0.05em;">New application: {{.Position}}</h2>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
    <tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
    <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
    <tr><td><strong>Position</strong></td><td>{{.Position}}</td></tr>
  </table>
  {{if .CoverLetter}}
  <h3 style="font-weight: 400;">Cover letter</h3>
  <p style="white-space: pre-wrap;">{{.CoverLetter}}</p>
  {{end}}
  {{if .ResumeFilename}}<p>Resume attached: {{.ResumeFilename}}</p>{{end}}
</body>
</html>`))

// RenderJobApplication renders the HTML body for a job application.
func RenderJobApplication(app JobApplication) (string, error) {
	var buf bytes.Buffer
	if err := jobApplicationTemplate.Execute(&buf, app); err != nil {
		return "", fmt.Errorf("render job application: %w", err)
	}
	return buf.String(), nil
}

// SendJobApplication emails app to the careers inbox with the resume
// attached when present.
func (s *EmailService) SendJobApplication(ctx context.Context, to string, app JobApplication) (string, error) {
	if to == "" {
		return "", errors.New("careers inbox is not configured")
	}
	html, err := RenderJobApplication(app)
	if err != nil {
		return "", err
	}

	msg := Email{
		To:      []string{to},
		Subject: fmt.Sprintf("Job application: %s - %s", app.Position, app.Name),
		HTML:    html,
		ReplyTo: []string{app.Email},
	}
	if app.ResumeBase64 != "" {
		filename := app.ResumeFilename
		if filename == "" {
			filename = "resume.pdf"
		}
		msg.Attachments = []Attachment{{Filename: filename, Content: app.ResumeBase64}}
	}
	return s.Send(ctx, msg)
}

var resetCodeTemplate = template.Must(template.New("reset_code").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1a1a1a;">
  <p>Use this code to reset your Maison password:</p>
  <p style="font-size: 28px; letter-spacing: 0.3em;">{{.Code}}</p>
  <p>The code expires in {{.Minutes}} minutes. If you did not ask for it, ignore this email.</p>
</body>
</html>`))

// SendPasswordResetCode emails a reset code.
func (s *EmailService) SendPasswordResetCode(ctx context.Context, to, code string, ttl time.Duration) error {
	var buf bytes.Buffer
	if err := resetCodeTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl.Minutes())}); err != nil {
		return fmt.Errorf("render reset code: %w", err)
	}
	_, err := s.Send(ctx, Email{
		To:      []string{to},
		Subject: "Your Maison password reset code",
		HTML:    buf.String(),
	})
	return err
}
