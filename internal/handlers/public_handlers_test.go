package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/store"
)

type memSubscribers struct {
	mu     sync.Mutex
	emails map[string]string
}

func (m *memSubscribers) Subscribe(_ context.Context, email, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[email]; ok {
		return store.ErrAlreadyExists
	}
	m.emails[email] = source
	return nil
}

func (m *memSubscribers) Unsubscribe(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[email]; !ok {
		return store.ErrNotFound
	}
	delete(m.emails, email)
	return nil
}

func TestNewsletter(t *testing.T) {
	subs := &memSubscribers{emails: map[string]string{}}
	h := NewNewsletterHandler(subs)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Post("/newsletter", h.Subscribe)
	app.Post("/newsletter/unsubscribe", h.Unsubscribe)

	status, body := doRequest(t, app, "POST", "/newsletter", fiber.Map{"email": "Ana@Example.com"}, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"email":"ana@example.com","already_subscribed":false}`, string(body.Data))
	assert.Equal(t, "footer", subs.emails["ana@example.com"])

	status, body = doRequest(t, app, "POST", "/newsletter", fiber.Map{"email": "ana@example.com", "source": "popup"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"email":"ana@example.com","already_subscribed":true}`, string(body.Data))

	status, _ = doRequest(t, app, "POST", "/newsletter", fiber.Map{"email": "nope"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doRequest(t, app, "POST", "/newsletter/unsubscribe", fiber.Map{"email": "ana@example.com"}, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body = doRequest(t, app, "POST", "/newsletter/unsubscribe", fiber.Map{"email": "ana@example.com"}, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "email is not subscribed", body.Error)
}

type fakeApplications struct {
	err      error
	to       string
	sent     []services.JobApplication
	notified int
}

func (f *fakeApplications) SendJobApplication(_ context.Context, to string, app services.JobApplication) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.to = to
	f.sent = append(f.sent, app)
	return "email-1", nil
}

func (f *fakeApplications) NotifyJobApplication(context.Context, services.JobApplication) error {
	f.notified++
	return nil
}

func newCareersApp(f *fakeApplications) *fiber.App {
	h := NewCareersHandler(f, f, "hr@maison.example", zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Post("/careers/apply", h.Apply)
	return app
}

func validApplication() fiber.Map {
	return fiber.Map{
		"name":           "Ana",
		"email":          "ana@example.com",
		"phone":          "+33 1 23 45 67 89",
		"position":       "Stylist",
		"coverLetter":    "Hello",
		"resumeBase64":   "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		"resumeFilename": "cv.pdf",
	}
}

func TestCareersApply(t *testing.T) {
	f := &fakeApplications{}
	app := newCareersApp(f)

	status, body := doRequest(t, app, "POST", "/careers/apply", validApplication(), "")
	require.Equal(t, fiber.StatusOK, status, body.Error)
	assert.True(t, body.Success)
	assert.Equal(t, "hr@maison.example", f.to)
	require.Len(t, f.sent, 1)
	assert.False(t, strings.HasPrefix(f.sent[0].ResumeBase64, "data:"))
	assert.Equal(t, 1, f.notified)
}

func TestCareersApply_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fiber.Map)
		err    error
		status int
		msg    string
	}{
		{"missing phone", func(m fiber.Map) { delete(m, "phone") }, nil, fiber.StatusBadRequest, "Missing required fields"},
		{"bad email", func(m fiber.Map) { m["email"] = "ana" }, nil, fiber.StatusBadRequest, "Invalid email address"},
		{"bad resume", func(m fiber.Map) { m["resumeBase64"] = "not base64!" }, nil, fiber.StatusBadRequest, "Resume must be base64 encoded"},
		{"email disabled", func(fiber.Map) {}, services.ErrEmailNotConfigured, fiber.StatusServiceUnavailable, "Applications are temporarily unavailable"},
		{"provider down", func(fiber.Map) {}, errors.New("resend: 500"), fiber.StatusBadGateway, "Failed to send application"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeApplications{err: tt.err}
			req := validApplication()
			tt.mutate(req)

			status, body := doRequest(t, newCareersApp(f), "POST", "/careers/apply", req, "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, body.Error)
			assert.Zero(t, f.notified)
		})
	}
}
