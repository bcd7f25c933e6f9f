package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/config"
	"github.com/example/atlasmarket/internal/handlers"
	"github.com/example/atlasmarket/internal/middleware"
	"github.com/example/atlasmarket/internal/models"
	"github.com/example/atlasmarket/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	tokenService := services.NewTokenService(cfg)
	gateway := services.NewVerifyClient(cfg)
	authService := services.NewAuthService(db, cfg, tokenService, gateway)
	orderService := services.NewOrderService(db)

	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(orderService)
	profileHandler := handlers.NewProfileHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/external-login", authHandler.ExternalLogin)
	auth.Post("/otp/send", authHandler.SendOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/password/forgot", authHandler.ForgotPassword)
	auth.Post("/password/reset", authHandler.ResetPassword)

	// Public catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)

	products := api.Group("/products")
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/:id", catalogHandler.GetProduct)

	// Protected routes
	protected := api.Group("", middleware.RequireAuth(cfg))

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Put("/profile/password", authHandler.ChangePassword)

	addresses := protected.Group("/profile/addresses")
	addresses.Get("/", profileHandler.ListAddresses)
	addresses.Post("/", profileHandler.CreateAddress)
	addresses.Put("/:id", middleware.OwnerOrAdmin(db, "address", "id"), profileHandler.UpdateAddress)
	addresses.Delete("/:id", middleware.OwnerOrAdmin(db, "address", "id"), profileHandler.DeleteAddress)

	cart := protected.Group("/cart")
	cart.Get("/", cartHandler.ListItems)
	cart.Post("/", cartHandler.AddItem)
	cart.Put("/:id", cartHandler.UpdateItem)
	cart.Delete("/clear", cartHandler.ClearCart)
	cart.Delete("/:id", cartHandler.RemoveItem)

	orders := protected.Group("/orders")
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", middleware.OwnerOrAdmin(db, "order", "id"), orderHandler.GetOrder)
	orders.Post("/:id/cancel", middleware.OwnerOrAdmin(db, "order", "id"), orderHandler.CancelOrder)

	// Admin routes
	admin := protected.Group("/admin", middleware.RestrictTo(models.RoleAdmin))
	admin.Get("/orders", orderHandler.ListAllOrders)
	admin.Put("/orders/:id/status", orderHandler.UpdateStatus)
	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
	admin.Post("/products", catalogHandler.CreateProduct)
	admin.Put("/products/:id", catalogHandler.UpdateProduct)
	admin.Delete("/products/:id", catalogHandler.DeleteProduct)
}
