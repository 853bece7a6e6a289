package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/notify"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

const testSecret = "test-secret"

// memRepo is an in-memory storefront.Repository.
type memRepo struct {
	mu       sync.Mutex
	wishlist map[uuid.UUID][]models.WishlistItem
	profiles map[uuid.UUID]*models.Profile
	history  map[uuid.UUID][]models.LoyaltyTransaction
}

func newMemRepo() *memRepo {
	return &memRepo{
		wishlist: map[uuid.UUID][]models.WishlistItem{},
		profiles: map[uuid.UUID]*models.Profile{},
		history:  map[uuid.UUID][]models.LoyaltyTransaction{},
	}
}

func (m *memRepo) ListWishlist(_ context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.WishlistItem(nil), m.wishlist[userID]...), nil
}

func (m *memRepo) InsertWishlistItem(_ context.Context, item *models.WishlistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.wishlist[item.UserID] {
		if existing.ProductID == item.ProductID {
			return store.ErrAlreadyExists
		}
	}
	m.wishlist[item.UserID] = append([]models.WishlistItem{*item}, m.wishlist[item.UserID]...)
	return nil
}

func (m *memRepo) DeleteWishlistItem(_ context.Context, userID uuid.UUID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.wishlist[userID][:0]
	for _, item := range m.wishlist[userID] {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	m.wishlist[userID] = items
	return nil
}

func (m *memRepo) ClearWishlist(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wishlist, userID)
	return nil
}

func (m *memRepo) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) ListLoyaltyTransactions(_ context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[userID]
	if len(h) > limit {
		h = h[:limit]
	}
	return append([]models.LoyaltyTransaction(nil), h...), nil
}

func (m *memRepo) UpdateProfile(_ context.Context, userID uuid.UUID, fields store.ProfileFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return store.ErrNotFound
	}
	if fields.FullName != nil {
		p.FullName = *fields.FullName
	}
	if fields.Phone != nil {
		p.Phone = *fields.Phone
	}
	if fields.AvatarURL != nil {
		p.AvatarURL = *fields.AvatarURL
	}
	return nil
}

func (m *memRepo) setProfile(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = &p
}

type testEnv struct {
	app      *fiber.App
	repo     *memRepo
	registry *storefront.Registry
	userID   uuid.UUID
	token    string
}

// newTestEnv returns an app whose routes are registered by mount behind the
// auth middleware, and a signed-in customer with a silver profile.
func newTestEnv(t *testing.T, mount func(env *testEnv, r fiber.Router)) *testEnv {
	t.Helper()

	env := &testEnv{repo: newMemRepo(), userID: uuid.New()}
	env.registry = storefront.NewRegistry(env.repo, zap.NewNop())
	env.repo.setProfile(models.Profile{
		UserID:        env.userID,
		Email:         "ana@example.com",
		FullName:      "Ana",
		LoyaltyPoints: 1500,
		LoyaltyTier:   "silver",
	})

	token, _, err := utils.GenerateToken(testSecret, env.userID, "ana@example.com", time.Hour)
	require.NoError(t, err)
	env.token = token

	env.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	mount(env, env.app.Group("/api", middleware.AuthMiddleware(testSecret)))
	return env
}

type envelope struct {
	Success       bool                  `json:"success"`
	Data          json.RawMessage       `json:"data"`
	Error         string                `json:"error"`
	Notifications []notify.Notification `json:"notifications"`
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	return doRequest(t, env.app, method, path, body, env.token)
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}
