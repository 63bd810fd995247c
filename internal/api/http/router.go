package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/careclinic/volunteer-desk/internal/api/http/handlers"
	"github.com/careclinic/volunteer-desk/internal/auth"
	"github.com/careclinic/volunteer-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Volunteers     *handlers.VolunteersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/volunteers/register", cfg.Volunteers.Register)
	authGroup.Post("/volunteers/login", cfg.Volunteers.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Get("/volunteers", cfg.Volunteers.List)
	protected.Patch("/volunteers/:id/role", auth.RequireRole(domain.RoleAdmin), cfg.Volunteers.UpdateRole)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/board", cfg.Tickets.Board)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.ChangePriority)
	tickets.Patch("/:id/assignee", cfg.Tickets.Assign)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)
}
