package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/wishlist"
)

// WishlistHandler exposes the caller's wishlist.
type WishlistHandler struct {
	registry *storefront.Registry
}

// NewWishlistHandler constructs WishlistHandler.
func NewWishlistHandler(registry *storefront.Registry) *WishlistHandler {
	return &WishlistHandler{registry: registry}
}

func wishlistView(ws *storefront.Workspace) fiber.Map {
	return fiber.Map{
		"state": ws.Wishlist.State(),
		"items": ws.Wishlist.Items(),
	}
}

// productIDParam accepts either the numeric wishlist product id or the
// catalog external id it is derived from. Catalog ids may themselves be
// numeric, so a numeric segment whose derived id is saved resolves to that
// item; otherwise it is taken as a wishlist product id.
func productIDParam(c *fiber.Ctx, ws *storefront.Workspace) (int64, error) {
	raw := strings.TrimSpace(c.Params("productId"))
	derived := wishlist.DeriveProductID(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		if derived != 0 && ws.Wishlist.Contains(derived) {
			return derived, nil
		}
		return id, nil
	}
	if derived != 0 {
		return derived, nil
	}
	return 0, fiber.NewError(fiber.StatusBadRequest, "invalid product id")
}

// List returns the saved products, newest first.
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, wishlistView(ws), ws)
}

type addWishlistRequest struct {
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	Price      float64 `json:"price"`
}

// Add saves a product. A product that is already saved is not an error.
func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	var req addWishlistRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.ExternalID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "external_id is required")
	}

	added := ws.Wishlist.Add(c.UserContext(), wishlist.Product{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Image:      req.Image,
		Price:      req.Price,
	})
	status := fiber.StatusOK
	if added {
		status = fiber.StatusCreated
	}
	view := wishlistView(ws)
	view["added"] = added
	view["product_id"] = wishlist.DeriveProductID(req.ExternalID)
	return respond(c, status, view, ws)
}

// Contains reports whether a product is saved.
func (h *WishlistHandler) Contains(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	id, err := productIDParam(c, ws)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"product_id": id, "saved": ws.Wishlist.Contains(id)}, ws)
}

// Remove deletes a saved product.
func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	id, err := productIDParam(c, ws)
	if err != nil {
		return err
	}

	view := wishlistView(ws)
	if !ws.Wishlist.Remove(c.UserContext(), id) {
		return respond(c, fiber.StatusBadGateway, view, ws)
	}
	return respond(c, fiber.StatusOK, wishlistView(ws), ws)
}

// Clear deletes every saved product.
func (h *WishlistHandler) Clear(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	if !ws.Wishlist.Clear(c.UserContext()) {
		return respond(c, fiber.StatusBadGateway, wishlistView(ws), ws)
	}
	return respond(c, fiber.StatusOK, wishlistView(ws), ws)
}
