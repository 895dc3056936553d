package main

import (
	"log"
	"os"

	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/routes"
	"learnhub/backend/storage"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// @title LearnHub API
// @version 1.0
// @description Course management backend: catalog, registrations and administration.
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		Output:       os.Stdout,
		EnableColors: cfg.LogFormat != "json",
	})

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	assets, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix, logger)
	if err != nil {
		log.Fatalf("Error initializing storage: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxUploadBytes),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	app.Static(cfg.UploadURLPrefix, cfg.UploadDir)

	// Setup routes
	routes.SetupRoutes(app, db, cfg, assets, logger)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
