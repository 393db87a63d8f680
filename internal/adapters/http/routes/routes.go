package routes

import (
	"ems-backend/internal/adapters/http/handlers"
	"ems-backend/internal/adapters/http/middleware"
	"ems-backend/internal/adapters/persistence/repositories"
	"ems-backend/internal/config"
	"ems-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	denylistRepo := repositories.NewDenylistRepository(rdb)
	rootFormRepo := repositories.NewRootFormRepository(db)
	personalRepo := repositories.NewPersonalDetailsRepository(db)
	serviceRepo := repositories.NewServiceDetailsRepository(db)
	txManager := repositories.NewTxManager(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, denylistRepo, cfg)
	userService := services.NewUserService(userRepo)
	formService := services.NewFormService(rootFormRepo, personalRepo, serviceRepo, txManager)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	formHandler := handlers.NewFormHandler(formService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, formHandler, authService)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	formHandler *handlers.FormHandler,
	authService *services.AuthService,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, authService)

	// Profile routes (Authenticated users)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(authService))
	setupUserRoutes(userRoutes, userHandler)

	// Form routes (Authenticated users)
	formRoutes := router.Group("/forms")
	formRoutes.Use(middleware.AuthMiddleware(authService))
	setupFormRoutes(formRoutes, formHandler)

	// Step routes (Authenticated users)
	personalRoutes := router.Group("/personal-details")
	personalRoutes.Use(middleware.AuthMiddleware(authService))
	personalRoutes.Post("/", formHandler.CreatePersonalDetails)
	personalRoutes.Patch("/:id", formHandler.UpdatePersonalDetails)

	serviceRoutes := router.Group("/service-details")
	serviceRoutes.Use(middleware.AuthMiddleware(authService))
	serviceRoutes.Post("/", formHandler.CreateServiceDetails)
	serviceRoutes.Patch("/:id", formHandler.UpdateServiceDetails)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, authService *services.AuthService) {
	// Public routes (rate limited)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)

	// Protected routes
	router.Post("/logout", middleware.AuthMiddleware(authService), handler.Logout)
	router.Post("/logout-all", middleware.AuthMiddleware(authService), handler.LogoutAll)
	router.Get("/check", middleware.AuthMiddleware(authService), handler.CheckAuth)
	router.Post("/check", middleware.AuthMiddleware(authService), handler.CheckAuth)
	router.Get("/me", middleware.AuthMiddleware(authService), handler.Me)
}

// setupUserRoutes configures profile routes (Authenticated)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/profile", handler.GetProfile)
	router.Patch("/profile", handler.UpdateProfile)
	router.Post("/change-password", handler.ChangePassword)
}

// setupFormRoutes configures multi-step form routes (Authenticated)
func setupFormRoutes(router fiber.Router, handler *handlers.FormHandler) {
	router.Post("/", handler.CreateForm)
	router.Get("/", handler.ListForms)
	router.Get("/:id", handler.GetForm)
	router.Patch("/:id", handler.UpdateForm)
}
