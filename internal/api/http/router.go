package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jende/inventory-service/internal/api/http/handlers"
	"github.com/jende/inventory-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/sync", cfg.Health.Sync)

	authGroup := app.Group("/api/auth")
	if cfg.AuthLimiter != nil {
		authGroup.Use(cfg.AuthLimiter)
	}
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/recuperar", cfg.Auth.Recover)
	authGroup.Post("/recuperar-password", cfg.Auth.Recover)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	productos := app.Group("/api/productos")
	productos.Get("/", cfg.Products.List)
	productos.Get("/pdf", cfg.Products.Report)
	productos.Post("/", cfg.Products.Create)
	productos.Put("/:id", cfg.Products.Update)
	productos.Delete("/:id", cfg.Products.Delete)
}
