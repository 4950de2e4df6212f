package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/handlers"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/middleware"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/realtime"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/repository"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/services"
)

func SetupAuthRoutes(app *fiber.App, users *repository.UserRepository, secret string) {
	grp := app.Group("/users")
	grp.Post("/register", handlers.Register(users, secret))
	grp.Post("/login", handlers.Login(users, secret))
	grp.Get("/me", middleware.RequireAuth(secret), handlers.Me(users))
}

func SetupJobRoutes(app *fiber.App, svc *services.JobService, secret string) {
	jobs := app.Group("/jobs", middleware.RequireAuth(secret))

	jobs.Post("/opportunity", middleware.RequireRole(models.RoleAdmin), handlers.CreateOpportunity(svc))
	jobs.Post("/opportunity/:id/apply", handlers.ApplyToOpportunity(svc))

	jobs.Get("/items", handlers.GetJobItems(svc))
	jobs.Get("/items/:id", handlers.GetJobItem(svc))
	jobs.Put("/items/:id", handlers.UpdateJobItem(svc))
	jobs.Delete("/items/:id", handlers.DeleteJobItem(svc))
}

func SetupRealtime(app *fiber.App, hub *realtime.Hub) {
	app.Use("/ws", handlers.WSUpgrade)
	app.Get("/ws", handlers.JobSocket(hub))
}
