package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maison/internal/loyalty"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

// OrderStore persists orders and their loyalty ledger entries.
type OrderStore interface {
	PlaceOrder(ctx context.Context, order *models.Order, ledger []models.LoyaltyTransaction, tierFor store.TierFunc) error
	ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// OrderNotifier tells the shop staff about new orders.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order services.OrderNotification) error
}

// OrderHandler manages order endpoints.
type OrderHandler struct {
	registry *storefront.Registry
	orders   OrderStore
	notifier OrderNotifier
	currency string
	log      *zap.Logger
	now      func() time.Time
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(registry *storefront.Registry, orders OrderStore, notifier OrderNotifier, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		registry: registry,
		orders:   orders,
		notifier: notifier,
		currency: "USD",
		log:      log.Named("orders"),
		now:      time.Now,
	}
}

type createOrderRequest struct {
	RedeemPoints    int    `json:"redeem_points"`
	ShippingName    string `json:"shipping_name"`
	ShippingPhone   string `json:"shipping_phone"`
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	PaymentMethod   string `json:"payment_method"`
	Currency        string `json:"currency"`
	Notes           string `json:"notes"`
}

// CreateOrder turns the caller's cart into an order, optionally redeeming
// loyalty points, and credits the points the paid total earns.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.ShippingAddress) == "" || strings.TrimSpace(req.ShippingName) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "shipping_name and shipping_address are required")
	}
	if req.RedeemPoints < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "redeem_points must not be negative")
	}

	items := ws.Cart.Items()
	if len(items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
	}
	if req.RedeemPoints > 0 && !ws.Loyalty.CanRedeem(req.RedeemPoints) {
		return fiber.NewError(fiber.StatusBadRequest, "insufficient loyalty points")
	}

	sess := ws.Sessions.Current()
	subtotal := roundMoney(ws.Cart.Subtotal())
	discount, redeemed := loyalty.Redeem(subtotal, req.RedeemPoints)
	total := roundMoney(subtotal - discount)
	earned := loyalty.EarnedPoints(total)

	order := models.Order{
		UserID:          sess.UserID,
		OrderNumber:     h.generateOrderNumber(),
		Status:          models.OrderStatusPending,
		PlacedAt:        h.now().UTC(),
		Subtotal:        subtotal,
		Discount:        roundMoney(discount),
		TotalAmount:     total,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		PointsRedeemed:  redeemed,
		PointsEarned:    earned,
		ShippingName:    strings.TrimSpace(req.ShippingName),
		ShippingPhone:   strings.TrimSpace(req.ShippingPhone),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ShippingCity:    strings.TrimSpace(req.ShippingCity),
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	}
	if order.Currency == "" {
		order.Currency = h.currency
	}
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			LineID:       item.ID,
			ProductName:  item.Name,
			VariantLabel: item.Size,
			Image:        item.Image,
			Quantity:     item.Quantity,
			UnitPrice:    item.Price,
			LineTotal:    roundMoney(item.Price * float64(item.Quantity)),
		})
	}

	var ledger []models.LoyaltyTransaction
	if redeemed > 0 {
		ledger = append(ledger, models.LoyaltyTransaction{
			UserID:      sess.UserID,
			Type:        models.TransactionRedeemed,
			Points:      -redeemed,
			Description: "Redeemed on order " + order.OrderNumber,
		})
	}
	if earned > 0 {
		ledger = append(ledger, models.LoyaltyTransaction{
			UserID:      sess.UserID,
			Type:        models.TransactionEarned,
			Points:      earned,
			Description: "Earned on order " + order.OrderNumber,
		})
	}

	ctx := c.UserContext()
	if err := h.orders.PlaceOrder(ctx, &order, ledger, tierLabel); err != nil {
		if errors.Is(err, store.ErrInsufficientPoints) {
			// The cached balance was stale; show the customer the stored one.
			ws.Loyalty.Refresh(ctx)
			return fiber.NewError(fiber.StatusBadRequest, "insufficient loyalty points")
		}
		return fmt.Errorf("place order: %w", err)
	}
	h.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Stringer("user_id", sess.UserID),
		zap.Float64("total", order.TotalAmount))

	ws.Cart.Clear()
	ws.Loyalty.Refresh(ctx)
	h.notifyStaff(ctx, &order, ws)

	return respond(c, fiber.StatusCreated, order, ws)
}

func (h *OrderHandler) notifyStaff(ctx context.Context, order *models.Order, ws *storefront.Workspace) {
	if h.notifier == nil {
		return
	}
	n := services.OrderNotification{
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.ShippingName,
		CustomerEmail:  ws.Sessions.Current().Email,
		TotalAmount:    order.TotalAmount,
		Currency:       order.Currency,
		PointsRedeemed: order.PointsRedeemed,
		PointsEarned:   order.PointsEarned,
	}
	for _, item := range order.Items {
		n.Items = append(n.Items, services.OrderItemNotification{
			Name:     item.ProductName,
			Variant:  item.VariantLabel,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}
	if err := h.notifier.NotifyNewOrder(ctx, n); err != nil {
		h.log.Warn("order notification failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

// ListOrders returns orders for authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListOrders(c.UserContext(), ws.Sessions.Current().UserID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"data":          orders,
		"pagination":    pg.Meta(total),
		"notifications": ws.Notices.Drain(),
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	ws, err := workspaceFor(c, h.registry)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.UserContext(), ws.Sessions.Current().UserID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}
	return respond(c, fiber.StatusOK, order, ws)
}

func (h *OrderHandler) generateOrderNumber() string {
	suffix, err := utils.RandomToken(3)
	if err != nil {
		suffix = fmt.Sprintf("%06d", h.now().UnixNano()%1000000)
	}
	return fmt.Sprintf("MS-%s-%s", h.now().UTC().Format("060102"), strings.ToUpper(suffix))
}

func tierLabel(points int) string {
	return string(loyalty.TierForPoints(points))
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
