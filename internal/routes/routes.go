package routes

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/handlers"
	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
)

// Deps are the long-lived collaborators the routes need.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Registry *storefront.Registry
	Email    *services.EmailService
	Telegram *services.TelegramService
	Storage  *services.StorageService
	Catalog  services.CatalogProvider
	Log      *zap.Logger
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	cfg := d.Config
	db := d.Store.DB()

	authHandler := handlers.NewAuthHandler(d.Store, d.Registry, cfg, d.Log)
	resetHandler := handlers.NewPasswordResetHandler(d.Store, d.Email, !cfg.IsProduction(), d.Log)
	profileHandler := handlers.NewProfileHandler(d.Registry, d.Store, d.Storage, d.Log)
	cartHandler := handlers.NewCartHandler(d.Registry)
	wishlistHandler := handlers.NewWishlistHandler(d.Registry)
	loyaltyHandler := handlers.NewLoyaltyHandler(d.Registry)
	orderHandler := handlers.NewOrderHandler(d.Registry, d.Store, d.Telegram, d.Log)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db, d.Store, d.Catalog, d.Log)
	newsletterHandler := handlers.NewNewsletterHandler(d.Store)
	careersHandler := handlers.NewCareersHandler(d.Email, d.Telegram, cfg.CareersEmailTo, d.Log)
	adminHandler := handlers.NewAdminHandler(db, d.Store, d.Registry, d.Log)

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: strings.Join([]string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut,
			fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions,
		}, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"status": "ok"}})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/password/forgot", resetHandler.ForgotPassword)
	auth.Post("/password/verify", resetHandler.VerifyResetCode)
	auth.Post("/password/reset", resetHandler.ResetPassword)

	// Public catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:slug", catalogHandler.GetCategory)
	api.Get("/brands", catalogHandler.ListBrands)
	api.Get("/brands/:slug", catalogHandler.GetBrand)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:slug", productHandler.GetProduct)

	api.Post("/newsletter", newsletterHandler.Subscribe)
	api.Post("/newsletter/unsubscribe", newsletterHandler.Unsubscribe)
	api.Post("/careers/apply", careersHandler.Apply)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))

	protected.Post("/auth/logout", authHandler.Logout)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Post("/profile/avatar", profileHandler.UploadAvatar)

	protected.Get("/cart", cartHandler.GetCart)
	protected.Delete("/cart", cartHandler.Clear)
	protected.Post("/cart/items", cartHandler.AddItem)
	protected.Patch("/cart/items/:id", cartHandler.UpdateItem)
	protected.Delete("/cart/items/:id", cartHandler.RemoveItem)

	protected.Get("/wishlist", wishlistHandler.List)
	protected.Post("/wishlist", wishlistHandler.Add)
	protected.Delete("/wishlist", wishlistHandler.Clear)
	protected.Get("/wishlist/:productId", wishlistHandler.Contains)
	protected.Delete("/wishlist/:productId", wishlistHandler.Remove)

	protected.Get("/loyalty", loyaltyHandler.Summary)
	protected.Get("/loyalty/progress", loyaltyHandler.Progress)
	protected.Get("/loyalty/can-redeem", loyaltyHandler.CanRedeem)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireAdmin(d.Store))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Post("/users/:id/loyalty", adminHandler.AdjustLoyalty)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Patch("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/newsletter", adminHandler.ListSubscribers)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)
	admin.Post("/products/sync", productHandler.SyncProducts)

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
	admin.Post("/brands", catalogHandler.CreateBrand)
	admin.Put("/brands/:id", catalogHandler.UpdateBrand)
	admin.Delete("/brands/:id", catalogHandler.DeleteBrand)
}
