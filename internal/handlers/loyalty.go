package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maison/internal/storefront"
)

// LoyaltyHandler exposes the caller's loyalty balance and history.
type LoyaltyHandler struct {
	registry *storefront.Registry
}

// NewLoyaltyHandler constructs LoyaltyHandler.
func NewLoyaltyHandler(registry *storefront.Registry) *LoyaltyHandler {
	return &LoyaltyHandler{registry: registry}
}

// Summary returns the profile, the recent transactions and tier progress.
// ?refresh=true re-fetches before answering.
func (h *LoyaltyHandler) Summary(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	if c.QueryBool("refresh") {
		ws.Loyalty.Refresh(c.UserContext())
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"profile":      ws.Loyalty.Profile(),
		"transactions": ws.Loyalty.Transactions(),
		"progress":     ws.Loyalty.TierProgress(),
	}, ws)
}

// Progress returns only the tier progress.
func (h *LoyaltyHandler) Progress(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, ws.Loyalty.TierProgress(), ws)
}

// CanRedeem answers whether ?points=N can be redeemed.
func (h *LoyaltyHandler) CanRedeem(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	points, err := strconv.Atoi(c.Query("points"))
	if err != nil || points < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "points must be a non-negative integer")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"points":     points,
		"can_redeem": ws.Loyalty.CanRedeem(points),
	}, ws)
}
