package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/studio-booking/internal/api/http/handlers"
	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	Bookings       *handlers.BookingsHandler
	Reviews        *handlers.ReviewsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// RateLimit guards credential and OTP endpoints; nil disables it.
	RateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	limited := cfg.RateLimit
	if limited == nil {
		limited = func(c *fiber.Ctx) error { return c.Next() }
	}
	authenticated := cfg.AuthMiddleware.Handle
	verified := auth.RequireVerified()
	admin := auth.RequireAdmin()

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", limited, cfg.Auth.Register)
	authGroup.Post("/verify-email", limited, cfg.Auth.VerifyEmail)
	authGroup.Post("/resend-otp", limited, cfg.Auth.ResendOTP)
	authGroup.Post("/login", limited, cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/forgot-password", limited, cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", limited, cfg.Auth.ResetPassword)
	authGroup.Post("/logout", authenticated, cfg.Auth.Logout)
	authGroup.Get("/me", authenticated, cfg.Auth.Me)
	authGroup.Patch("/me", authenticated, verified, cfg.Auth.UpdateMe)
	authGroup.Post("/change-password", authenticated, verified, cfg.Auth.ChangePassword)
	authGroup.Post("/change-email", authenticated, verified, cfg.Auth.ChangeEmail)
	authGroup.Post("/verify-email-change", authenticated, limited, cfg.Auth.VerifyEmailChange)

	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", limited, cfg.Admin.Login)
	adminGroup.Post("/verify-otp", limited, cfg.Admin.VerifyOTP)
	adminGroup.Get("/validate", authenticated, admin, cfg.Admin.Validate)
	adminGroup.Get("/users", authenticated, admin, cfg.Admin.ListUsers)
	adminGroup.Delete("/users/:id", authenticated, admin, cfg.Admin.DeleteUser)

	bookings := api.Group("/bookings", authenticated)
	// admin routes first so "admin" is never taken for a booking id
	bookings.Get("/admin/all", admin, cfg.Bookings.ListAll)
	bookings.Patch("/admin/status/:id", admin, cfg.Bookings.UpdateStatus)
	bookings.Post("", verified, cfg.Bookings.Create)
	bookings.Get("", cfg.Bookings.ListMine)
	bookings.Get("/:id", cfg.Bookings.Get)
	bookings.Patch("/:id", verified, cfg.Bookings.Update)
	bookings.Delete("/:id", cfg.Bookings.Delete)

	reviews := api.Group("/reviews")
	reviews.Get("", cfg.Reviews.ListPublic)
	reviews.Get("/admin/all", authenticated, admin, cfg.Reviews.ListAll)
	reviews.Patch("/admin/:id", authenticated, admin, cfg.Reviews.SetApproval)
	reviews.Post("", authenticated, verified, cfg.Reviews.Create)
	reviews.Delete("/:id", authenticated, cfg.Reviews.Delete)

	catalog := api.Group("/catalog")
	catalog.Get("", cfg.Catalog.ListOffered)
	catalog.Get("/admin/all", authenticated, admin, cfg.Catalog.ListAll)
	catalog.Put("/admin", authenticated, admin, cfg.Catalog.Upsert)
	catalog.Delete("/admin/:id", authenticated, admin, cfg.Catalog.Delete)
}
