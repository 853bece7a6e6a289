package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/utils"
)

// ProductHandler serves the catalog and its admin maintenance.
type ProductHandler struct {
	db       *gorm.DB
	products services.ProductUpserter
	provider services.CatalogProvider
	log      *zap.Logger
}

// NewProductHandler constructs ProductHandler. provider may be nil when no
// external catalog is configured.
func NewProductHandler(db *gorm.DB, products services.ProductUpserter, provider services.CatalogProvider, log *zap.Logger) *ProductHandler {
	return &ProductHandler{db: db, products: products, provider: provider, log: log.Named("products")}
}

// ListProducts returns paginated active products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).Where("products.is_active = ?", true)

	if slug := c.Query("category"); slug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", slug)
	}
	if slug := c.Query("brand"); slug != "" {
		query = query.Joins("JOIN brands ON brands.id = products.brand_id").
			Where("brands.slug = ?", slug)
	}
	if audience := c.Query("audience"); audience != "" {
		query = query.Where("products.audience = ?", audience)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("products.name ILIKE ? OR products.description ILIKE ?", q, q)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("products.price >= ?", val)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("products.price <= ?", val)
		}
	}
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("? = ANY(products.tags)", tag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	order := "products.created_at desc"
	switch c.Query("sort") {
	case "price_asc":
		order = "products.price asc"
	case "price_desc":
		order = "products.price desc"
	case "name":
		order = "products.name asc"
	}

	var products []models.Product
	if err := query.Preload("Brand").Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).
		Order(order).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a product by slug with its variants.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := h.db.Preload("Brand").
		Preload("Category").
		Preload("Variants").
		First(&product, "slug = ?", c.Params("slug")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Slug           string           `json:"slug"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Audience       string           `json:"audience"`
	Price          float64          `json:"price"`
	CompareAtPrice float64          `json:"compare_at_price"`
	Currency       string           `json:"currency"`
	HeroImage      string           `json:"hero_image"`
	Images         []string         `json:"images"`
	Tags           []string         `json:"tags"`
	IsActive       *bool            `json:"is_active"`
	BrandID        string           `json:"brand_id"`
	CategoryID     string           `json:"category_id"`
	Variants       []variantRequest `json:"variants"`
}

type variantRequest struct {
	SKU               string  `json:"sku"`
	Label             string  `json:"label"`
	Size              string  `json:"size"`
	Color             string  `json:"color"`
	Price             float64 `json:"price"`
	InventoryQuantity int     `json:"inventory_quantity"`
	InStock           *bool   `json:"in_stock"`
}

// CreateProduct adds a locally managed product.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product := models.Product{
		ExternalID: "local:" + uuid.NewString(),
		Source:     "local",
		IsActive:   true,
	}
	if err := applyProductRequest(&product, req); err != nil {
		return err
	}

	if err := h.products.UpsertProduct(c.UserContext(), &product); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct replaces a product's fields and variants.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := applyProductRequest(&product, req); err != nil {
		return err
	}

	if err := h.products.UpsertProduct(c.UserContext(), &product); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product and its variants.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SyncProducts pulls the external catalog into the products table.
func (h *ProductHandler) SyncProducts(c *fiber.Ctx) error {
	if h.provider == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no catalog provider configured")
	}

	result, err := services.SyncCatalog(c.UserContext(), h.provider, h.products, h.log)
	if err != nil {
		h.log.Error("catalog sync failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "catalog sync failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}

func applyProductRequest(product *models.Product, req productRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Slug = req.Slug
	if product.Slug == "" {
		product.Slug = services.Slugify(product.Name)
	}
	product.Description = req.Description
	product.Audience = req.Audience
	product.Price = req.Price
	product.CompareAtPrice = req.CompareAtPrice
	product.Currency = req.Currency
	product.HeroImage = req.HeroImage
	product.Images = pq.StringArray(req.Images)
	product.Tags = pq.StringArray(req.Tags)
	if product.Tags == nil {
		product.Tags = pq.StringArray{}
	}
	if product.HeroImage == "" && len(product.Images) > 0 {
		product.HeroImage = product.Images[0]
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	var err error
	if product.BrandID, err = optionalUUID(req.BrandID); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid brand_id")
	}
	if product.CategoryID, err = optionalUUID(req.CategoryID); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
	}

	product.Variants = nil
	for i, v := range req.Variants {
		inStock := v.InventoryQuantity > 0
		if v.InStock != nil {
			inStock = *v.InStock
		}
		price := v.Price
		if price == 0 {
			price = req.Price
		}
		label := v.Label
		if label == "" {
			label = strings.TrimSpace(strings.Join([]string{v.Size, v.Color}, " "))
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			ExternalID:        product.ExternalID + ":" + strconv.Itoa(i+1),
			SKU:               v.SKU,
			Label:             label,
			Size:              v.Size,
			Color:             v.Color,
			Price:             price,
			InventoryQuantity: v.InventoryQuantity,
			InStock:           inStock,
		})
	}
	return nil
}

func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
