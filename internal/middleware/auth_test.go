package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

type usersByID map[uuid.UUID]*models.User

func (u usersByID) FindUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func newApp(users UserFinder) *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware("secret"))
	app.Get("/me", func(c *fiber.Ctx) error {
		s, ok := GetCurrentSession(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.SendString(s.Email)
	})
	app.Get("/admin", RequireAdmin(users), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func bearer(t *testing.T, id uuid.UUID, email string) string {
	t.Helper()
	token, _, err := utils.GenerateToken("secret", id, email, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp(usersByID{})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", fiber.StatusUnauthorized},
		{"valid", bearer(t, uuid.New(), "ana@example.com"), fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	admin, customer := uuid.New(), uuid.New()
	app := newApp(usersByID{
		admin:    {IsAdmin: true},
		customer: {},
	})

	for id, status := range map[uuid.UUID]int{
		admin:      fiber.StatusOK,
		customer:   fiber.StatusForbidden,
		uuid.New(): fiber.StatusUnauthorized,
	} {
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", bearer(t, id, "x@example.com"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode)
	}
}
