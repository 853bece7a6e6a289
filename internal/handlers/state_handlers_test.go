package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/maison/internal/cart"
	"github.com/example/maison/internal/loyalty"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/notify"
	"github.com/example/maison/internal/wishlist"
)

type cartResponse struct {
	Items    []cart.Item `json:"items"`
	Count    int         `json:"count"`
	Subtotal float64     `json:"subtotal"`
}

func mountCart(env *testEnv, r fiber.Router) {
	h := NewCartHandler(env.registry)
	r.Get("/cart", h.GetCart)
	r.Delete("/cart", h.Clear)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/:id", h.UpdateItem)
	r.Delete("/cart/items/:id", h.RemoveItem)
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t, mountCart)

	status, body := env.do(t, "POST", "/api/cart/items", fiber.Map{
		"product_id": "shopify:1", "name": "Silk Dress", "price": 120, "quantity": 1, "size": "M",
	})
	require.Equal(t, fiber.StatusCreated, status)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, notify.LevelSuccess, body.Notifications[0].Level)

	env.do(t, "POST", "/api/cart/items", fiber.Map{
		"product_id": "shopify:1", "name": "Silk Dress", "price": 120, "quantity": 2, "size": "m",
	})
	status, body = env.do(t, "GET", "/api/cart", nil)
	require.Equal(t, fiber.StatusOK, status)
	got := decode[cartResponse](t, body.Data)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "shopify:1:m", got.Items[0].ID)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 360.0, got.Subtotal)
	assert.Empty(t, body.Notifications, "notifications are drained once")

	status, body = env.do(t, "PATCH", "/api/cart/items/shopify:1:m", fiber.Map{"quantity": 0})
	require.Equal(t, fiber.StatusOK, status)
	assert.Zero(t, decode[cartResponse](t, body.Data).Count)

	status, body = env.do(t, "PATCH", "/api/cart/items/missing", fiber.Map{"quantity": 2})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, body.Success)
	assert.Equal(t, "cart item not found", body.Error)
}

func TestCart_Validation(t *testing.T) {
	env := newTestEnv(t, mountCart)

	status, body := env.do(t, "POST", "/api/cart/items", fiber.Map{"name": "No id"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Error, "product_id")
}

func TestCart_RequiresToken(t *testing.T) {
	env := newTestEnv(t, mountCart)

	status, body := doRequest(t, env.app, "GET", "/api/cart", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, body.Success)
}

type wishlistResponse struct {
	State     string                `json:"state"`
	Items     []models.WishlistItem `json:"items"`
	Added     bool                  `json:"added"`
	ProductID int64                 `json:"product_id"`
}

func mountWishlist(env *testEnv, r fiber.Router) {
	h := NewWishlistHandler(env.registry)
	r.Get("/wishlist", h.List)
	r.Post("/wishlist", h.Add)
	r.Delete("/wishlist", h.Clear)
	r.Get("/wishlist/:productId", h.Contains)
	r.Delete("/wishlist/:productId", h.Remove)
}

func TestWishlistFlow(t *testing.T) {
	env := newTestEnv(t, mountWishlist)
	item := fiber.Map{"external_id": "shopify:42", "name": "Linen Shirt", "price": 80}

	status, body := env.do(t, "POST", "/api/wishlist", item)
	require.Equal(t, fiber.StatusCreated, status)
	added := decode[wishlistResponse](t, body.Data)
	assert.True(t, added.Added)
	assert.Equal(t, "loaded", added.State)
	require.Len(t, added.Items, 1)
	assert.Equal(t, wishlist.DeriveProductID("shopify:42"), added.ProductID)

	status, body = env.do(t, "POST", "/api/wishlist", item)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, decode[wishlistResponse](t, body.Data).Added)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "Already in your wishlist", body.Notifications[0].Title)

	_, body = env.do(t, "GET", "/api/wishlist/shopify:42", nil)
	assert.JSONEq(t, `{"product_id":`+itoa(added.ProductID)+`,"saved":true}`, string(body.Data))

	status, _ = env.do(t, "DELETE", "/api/wishlist/"+itoa(added.ProductID), nil)
	require.Equal(t, fiber.StatusOK, status)

	_, body = env.do(t, "GET", "/api/wishlist", nil)
	assert.Empty(t, decode[wishlistResponse](t, body.Data).Items)
}

func TestWishlist_NumericExternalID(t *testing.T) {
	env := newTestEnv(t, mountWishlist)

	status, body := env.do(t, "POST", "/api/wishlist", fiber.Map{"external_id": "12", "name": "Wool Scarf"})
	require.Equal(t, fiber.StatusCreated, status)
	derived := decode[wishlistResponse](t, body.Data).ProductID
	require.Equal(t, wishlist.DeriveProductID("12"), derived)

	_, body = env.do(t, "GET", "/api/wishlist/12", nil)
	assert.JSONEq(t, `{"product_id":`+itoa(derived)+`,"saved":true}`, string(body.Data))

	_, body = env.do(t, "GET", "/api/wishlist/13", nil)
	assert.JSONEq(t, `{"product_id":13,"saved":false}`, string(body.Data))

	status, _ = env.do(t, "DELETE", "/api/wishlist/12", nil)
	require.Equal(t, fiber.StatusOK, status)
	_, body = env.do(t, "GET", "/api/wishlist", nil)
	assert.Empty(t, decode[wishlistResponse](t, body.Data).Items)
}

func TestLoyaltyEndpoints(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, r fiber.Router) {
		h := NewLoyaltyHandler(env.registry)
		r.Get("/loyalty", h.Summary)
		r.Get("/loyalty/progress", h.Progress)
		r.Get("/loyalty/can-redeem", h.CanRedeem)
	})

	status, body := env.do(t, "GET", "/api/loyalty/progress", nil)
	require.Equal(t, fiber.StatusOK, status)
	progress := decode[loyalty.Progress](t, body.Data)
	assert.Equal(t, loyalty.TierSilver, progress.Tier)
	assert.Equal(t, 2500, progress.Next)
	assert.InDelta(t, 33.33, progress.Percent, 0.01)

	_, body = env.do(t, "GET", "/api/loyalty/can-redeem?points=1500", nil)
	assert.JSONEq(t, `{"points":1500,"can_redeem":true}`, string(body.Data))
	_, body = env.do(t, "GET", "/api/loyalty/can-redeem?points=1501", nil)
	assert.JSONEq(t, `{"points":1501,"can_redeem":false}`, string(body.Data))

	status, _ = env.do(t, "GET", "/api/loyalty/can-redeem?points=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = env.do(t, "GET", "/api/loyalty?refresh=true", nil)
	require.Equal(t, fiber.StatusOK, status)
	summary := decode[struct {
		Profile models.Profile `json:"profile"`
	}](t, body.Data)
	assert.Equal(t, 1500, summary.Profile.LoyaltyPoints)
}

func TestProfileUpdate(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, r fiber.Router) {
		h := NewProfileHandler(env.registry, env.repo, nil, zapNop())
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
	})

	status, body := env.do(t, "PUT", "/api/profile", fiber.Map{"full_name": "  Ana Maria "})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Ana Maria", decode[models.Profile](t, body.Data).FullName)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "Profile updated", body.Notifications[0].Title)

	status, _ = env.do(t, "PUT", "/api/profile", fiber.Map{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, body = env.do(t, "GET", "/api/profile", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body.Data), `"progress"`)
}
