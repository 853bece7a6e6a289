package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
	"github.com/example/maison/internal/utils"
)

// LedgerStore records loyalty transactions outside checkout.
type LedgerStore interface {
	RecordTransaction(ctx context.Context, txn *models.LoyaltyTransaction, tierFor store.TierFunc) (*models.Profile, error)
}

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db       *gorm.DB
	ledger   LedgerStore
	registry *storefront.Registry
	log      *zap.Logger
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, ledger LedgerStore, registry *storefront.Registry, log *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, ledger: ledger, registry: registry, log: log.Named("admin")}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	var totalUsers, totalOrders, totalProducts, subscribers int64
	counts := []struct {
		model interface{}
		where string
		dst   *int64
	}{
		{&models.User{}, "", &totalUsers},
		{&models.Order{}, "", &totalOrders},
		{&models.Product{}, "is_active = true", &totalProducts},
		{&models.NewsletterSubscriber{}, "unsubscribed_at IS NULL", &subscribers},
	}
	for _, cnt := range counts {
		query := db.Model(cnt.model)
		if cnt.where != "" {
			query = query.Where(cnt.where)
		}
		if err := query.Count(cnt.dst).Error; err != nil {
			return err
		}
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}
	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := db.Model(&models.Order{}).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var todayRevenue float64
	if err := db.Model(&models.Order{}).
		Where("status != ? AND placed_at::date = CURRENT_DATE", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	type tierCount struct {
		Tier  string `json:"tier"`
		Count int64  `json:"count"`
	}
	var tierCounts []tierCount
	if err := db.Model(&models.Profile{}).
		Select("loyalty_tier as tier, count(*) as count").
		Group("loyalty_tier").
		Scan(&tierCounts).Error; err != nil {
		return err
	}
	membersByTier := make(map[string]int64)
	for _, tc := range tierCounts {
		membersByTier[tc.Tier] = tc.Count
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":       totalUsers,
			"total_orders":      totalOrders,
			"active_products":   totalProducts,
			"subscribers":       subscribers,
			"total_revenue":     totalRevenue,
			"today_revenue":     todayRevenue,
			"orders_by_status":  ordersByStatus,
			"members_by_tier":   membersByTier,
			"active_workspaces": h.registry.Len(),
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering, and user info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where(
			"order_number ILIKE ? OR shipping_name ILIKE ?",
			"%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to another status.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	switch req.Status {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCancelled:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	res := h.db.WithContext(c.UserContext()).Model(&models.Order{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	h.log.Info("order status changed", zap.Stringer("order_id", id), zap.String("status", req.Status))
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"id": id, "status": req.Status}})
}

// ListAllUsers returns all registered users with their loyalty standing.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.User{}).
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id")

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("users.email ILIKE ? OR profiles.full_name ILIKE ? OR profiles.phone ILIKE ?", q, q, q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	type userRow struct {
		ID            uuid.UUID `json:"id"`
		Email         string    `json:"email"`
		IsAdmin       bool      `json:"is_admin"`
		FullName      string    `json:"full_name"`
		Phone         string    `json:"phone"`
		LoyaltyPoints int       `json:"loyalty_points"`
		LoyaltyTier   string    `json:"loyalty_tier"`
		OrderCount    int64     `json:"order_count"`
		TotalSpent    float64   `json:"total_spent"`
	}

	// Select specific fields to avoid exposing password hash
	var rows []userRow
	if err := query.Select(`users.id, users.email, users.is_admin,
			profiles.full_name, profiles.phone, profiles.loyalty_points, profiles.loyalty_tier,
			(SELECT count(*) FROM orders WHERE orders.user_id = users.id) AS order_count,
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE orders.user_id = users.id AND orders.status != 'cancelled') AS total_spent`).
		Order("users.created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Scan(&rows).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       rows,
		"pagination": pg.Meta(total),
	})
}

// ListSubscribers returns newsletter subscribers, newest first.
func (h *AdminHandler) ListSubscribers(c *fiber.Ctx) error {
	query := h.db.WithContext(c.UserContext()).Model(&models.NewsletterSubscriber{})
	if !c.QueryBool("include_unsubscribed") {
		query = query.Where("unsubscribed_at IS NULL")
	}
	return listResource[models.NewsletterSubscriber](c, query, "created_at desc")
}

type loyaltyAdjustmentRequest struct {
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// AdjustLoyalty credits or debits a user's points by hand. The balance never
// drops below zero.
func (h *AdminHandler) AdjustLoyalty(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req loyaltyAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Points == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "points must not be zero")
	}
	if strings.TrimSpace(req.Description) == "" {
		req.Description = "Manual adjustment"
	}

	ctx := c.UserContext()
	txn := models.LoyaltyTransaction{
		UserID:      userID,
		Type:        models.TransactionAdjustment,
		Points:      req.Points,
		Description: strings.TrimSpace(req.Description),
	}
	profile, err := h.ledger.RecordTransaction(ctx, &txn, tierLabel)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return err
	}
	h.log.Info("loyalty adjusted",
		zap.Stringer("user_id", userID),
		zap.Int("points", txn.Points),
		zap.Int("balance", profile.LoyaltyPoints))

	if ws, ok := h.registry.Lookup(userID); ok {
		ws.Loyalty.Refresh(ctx)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"transaction": txn,
		"profile":     profile,
	}})
}
