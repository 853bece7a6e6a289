package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maison/internal/cart"
	"github.com/example/maison/internal/storefront"
)

// CartHandler exposes the caller's in-memory cart.
type CartHandler struct {
	registry *storefront.Registry
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(registry *storefront.Registry) *CartHandler {
	return &CartHandler{registry: registry}
}

func cartView(ws *storefront.Workspace) fiber.Map {
	return fiber.Map{
		"items":    ws.Cart.Items(),
		"count":    ws.Cart.Count(),
		"subtotal": ws.Cart.Subtotal(),
	}
}

// GetCart returns the cart contents and totals.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, cartView(ws), ws)
}

type addCartItemRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
	Size      string  `json:"size"`
}

// AddItem adds a product line or increases the quantity of an existing one.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "product_id and name are required")
	}
	if req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}

	ws.Cart.AddItem(cart.Item{
		ID:       cart.LineID(req.ProductID, req.Size),
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Image:    req.Image,
		Size:     req.Size,
	})
	return respond(c, fiber.StatusCreated, cartView(ws), ws)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a line's quantity; zero or less removes it.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := c.Params("id")
	if _, ok := ws.Cart.Get(id); !ok {
		return fiber.NewError(fiber.StatusNotFound, "cart item not found")
	}
	ws.Cart.UpdateItemQuantity(id, req.Quantity)
	return respond(c, fiber.StatusOK, cartView(ws), ws)
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	ws.Cart.RemoveItem(c.Params("id"))
	return respond(c, fiber.StatusOK, cartView(ws), ws)
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	ws.Cart.Clear()
	return respond(c, fiber.StatusOK, cartView(ws), ws)
}
