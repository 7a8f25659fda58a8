package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Users        *handlers.UsersHandler
	Posts        *handlers.PostsHandler
	Profile      *handlers.ProfileHandler
	Middleware   *auth.Middleware
	LoginLimiter *ratelimit.Limiter
}

// RegisterRoutes wires HTTP routes. Admin routes always compose the
// authentication middleware before the role gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	api.Post("/register", cfg.Auth.Register)
	api.Post("/login", LoginRateLimit(cfg.LoginLimiter), cfg.Auth.Login)

	posts := api.Group("/posts", cfg.Middleware.Authenticate)
	posts.Get("", cfg.Posts.List)
	posts.Post("", cfg.Posts.Create)
	posts.Get("/:id", cfg.Posts.Get)
	posts.Patch("/:id", cfg.Posts.Update)
	posts.Delete("/:id", cfg.Posts.Delete)

	profile := api.Group("/profile", cfg.Middleware.Authenticate)
	profile.Get("", cfg.Profile.Get)
	profile.Patch("", cfg.Profile.Update)

	users := api.Group("/users", cfg.Middleware.Authenticate, cfg.Middleware.RequireAdmin)
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
}
