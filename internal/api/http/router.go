package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/http/handlers"
	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Todos          *handlers.TodosHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes. Literal segments such as /me and
// /change-status are registered before the parameterised routes they overlap.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group("/api")
	api.Post("/auth", cfg.Auth.Login)

	users := api.Group("/users")
	users.Post("/", cfg.Users.Register)
	users.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	users.Get("/reporter/:name", cfg.AuthMiddleware.Handle, auth.RequireCapability(domain.CapabilityUserRead), cfg.Users.SearchByName)
	users.Get("/:id", cfg.AuthMiddleware.Handle, cfg.Users.GetByID)
	users.Put("/:id", cfg.AuthMiddleware.Handle, cfg.Users.Update)

	todos := api.Group("/todos", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleUser))
	read := auth.RequireCapability(domain.CapabilityTodoRead)
	write := auth.RequireCapability(domain.CapabilityTodoWrite)

	todos.Get("/", read, cfg.Todos.List)
	todos.Get("/reporter/:userId", read, cfg.Todos.ListByReporter)
	todos.Patch("/change-status", write, cfg.Todos.ChangeStatus)
	todos.Patch("/update-favorites", write, cfg.Todos.UpdateFavorites)
	todos.Post("/", write, cfg.Todos.Create)
	todos.Get("/:id/history", read, cfg.Todos.History)
	todos.Get("/:id", read, cfg.Todos.Get)
	todos.Put("/:id", write, cfg.Todos.Update)
	todos.Delete("/:id", write, cfg.Todos.Delete)
}
