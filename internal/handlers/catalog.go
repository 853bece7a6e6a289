package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/utils"
)

// CatalogHandler manages categories and brands.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories, optionally for one audience.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	query := h.db.Model(&models.Category{})
	if audience := c.Query("audience"); audience != "" {
		query = query.Where("audience = ?", audience)
	}
	return listResource[models.Category](c, query, "name asc")
}

// GetCategory returns a category by slug.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	return getBySlug[models.Category](c, h.db, "category")
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	return createResource(c, h.db, func(m *models.Category) *string { return &m.Slug }, func(m *models.Category) string { return m.Name })
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	return updateResource[models.Category](c, h.db, "category")
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	return deleteResource[models.Category](c, h.db)
}

// ListBrands returns paginated brands.
func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	return listResource[models.Brand](c, h.db.Model(&models.Brand{}), "name asc")
}

// GetBrand returns a brand by slug.
func (h *CatalogHandler) GetBrand(c *fiber.Ctx) error {
	return getBySlug[models.Brand](c, h.db, "brand")
}

// CreateBrand persists a new brand.
func (h *CatalogHandler) CreateBrand(c *fiber.Ctx) error {
	return createResource(c, h.db, func(m *models.Brand) *string { return &m.Slug }, func(m *models.Brand) string { return m.Name })
}

// UpdateBrand updates an existing brand.
func (h *CatalogHandler) UpdateBrand(c *fiber.Ctx) error {
	return updateResource[models.Brand](c, h.db, "brand")
}

// DeleteBrand removes a brand by ID.
func (h *CatalogHandler) DeleteBrand(c *fiber.Ctx) error {
	return deleteResource[models.Brand](c, h.db)
}

// Generic helpers for simple lookup tables.

func listResource[T any](c *fiber.Ctx, query *gorm.DB, order string) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []T
	if err := query.Order(order).Limit(pg.Limit).Offset(pg.Offset).Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Meta(total),
	})
}

func getBySlug[T any](c *fiber.Ctx, db *gorm.DB, name string) error {
	var item T
	if err := db.First(&item, "slug = ?", c.Params("slug")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, name+" not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func createResource[T any](c *fiber.Ctx, db *gorm.DB, slug func(*T) *string, name func(*T) string) error {
	var payload T
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(name(&payload)) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if s := slug(&payload); *s == "" {
		*s = services.Slugify(name(&payload))
	}

	if err := db.Create(&payload).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "slug already in use")
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

func updateResource[T any](c *fiber.Ctx, db *gorm.DB, name string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var item T
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, name+" not found")
		}
		return err
	}

	var payload T
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// Updates with a struct skips zero fields, so omitted fields stay as they are.
	if err := db.Model(&item).Omit("id", "created_at").Updates(&payload).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "slug already in use")
		}
		return err
	}
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func deleteResource[T any](c *fiber.Ctx, db *gorm.DB) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var zero T
	if err := db.Delete(&zero, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
