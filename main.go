// @title Job Tracker API
// @version 1.0
// @description REST API for job opportunities and applications with realtime updates.
// @host localhost:5000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"log"

	_ "github.com/Jitenmohanty/SelfEx-Job-tracker/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/bootstrap"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/config"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/database"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/realtime"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/repository"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/routes"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.LoadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	client := database.ConnectMongo(cfg.MongoURI)
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB)

	if err := bootstrap.EnsureJobIndexes(db); err != nil {
		log.Fatalf("ensure job indexes failed: %v", err)
	}
	if err := bootstrap.EnsureUserIndexes(db); err != nil {
		log.Fatalf("ensure user indexes failed: %v", err)
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/docs/*", swagger.HandlerDefault)

	hub := realtime.NewHub()

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "connections": hub.Count()})
	})

	jobRepo := repository.NewJobRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobSvc := services.NewJobService(jobRepo, userRepo, hub)

	routes.SetupAuthRoutes(app, userRepo, cfg.JWTSecret)
	routes.SetupJobRoutes(app, jobSvc, cfg.JWTSecret)
	routes.SetupRealtime(app, hub)

	log.Printf("🚀 Server running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
