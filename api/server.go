/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

AUTHORIZATION:
  /api/login is the only open route. Everything else requires a bearer
  token; the management routes additionally require the Admin role.
  Screen enforcement (which pages a user may open) is the frontend's
  concern via GET /api/employees/{id}/screens; the API enforces roles.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/password", h.ChangePassword)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Get("/{id}", h.GetEmployee)
				r.Get("/{id}/balance", h.GetBalance)
				r.Get("/{id}/screens", h.GetScreens)
				r.Get("/{id}/records", h.EmployeeRecords)

				// Management
				r.Group(func(r chi.Router) {
					r.Use(h.requireAdmin)
					r.Post("/", h.CreateEmployee)
					r.Put("/{id}", h.UpdateEmployee)
					r.Delete("/{id}", h.DeleteEmployee)
					r.Put("/{id}/balance", h.SetBalance)
					r.Put("/{id}/screens", h.SetOverride)
					r.Delete("/{id}/screens", h.ClearOverride)
				})
			})

			r.Route("/schedule", func(r chi.Router) {
				r.Get("/", h.ListRecords)
				r.Post("/", h.Assign)
				r.Post("/remove", h.Unassign)
			})

			r.Get("/occupancy", h.Occupancy)
			r.Get("/balances", h.BalanceReport)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/occupancy.xlsx", h.OccupancyExport)
				r.Get("/balances.xlsx", h.BalanceExport)
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", h.GetRoles)
				r.With(h.requireAdmin).Put("/{role}", h.SetRoleScreens)
			})
		})
	})

	return r
}
