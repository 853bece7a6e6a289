package routes

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/handlers"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	log := zap.NewNop()
	st := store.New(nil)
	cfg := &config.Config{JWTSecret: "secret", CORSOrigins: "*", UploadDir: t.TempDir()}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(log)})
	Register(app, Deps{
		Config:   cfg,
		Store:    st,
		Registry: storefront.NewRegistry(st, log),
		Email:    services.NewEmailService("", "", "", log),
		Telegram: services.NewTelegramService("", "", log),
		Storage:  services.NewStorageService(cfg.UploadDir, "http://localhost"),
		Log:      log,
	})
	return app
}

func TestRegister_PublicAndProtected(t *testing.T) {
	app := newApp(t)

	tests := []struct {
		method, path string
		status       int
	}{
		{fiber.MethodGet, "/api/health", fiber.StatusOK},
		{fiber.MethodGet, "/api/cart", fiber.StatusUnauthorized},
		{fiber.MethodPost, "/api/orders", fiber.StatusUnauthorized},
		{fiber.MethodGet, "/api/admin/stats", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRegister_CORSPreflight(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(fiber.MethodOptions, "/api/careers/apply", nil)
	req.Header.Set("Origin", "https://maison.example")
	req.Header.Set("Access-Control-Request-Method", fiber.MethodPost)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), fiber.MethodPost)
}
