package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/adapters/http/routes"
	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/config"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/mailer"

	"github.com/gofiber/fiber/v2"

	_ "unem-umt/docs" // Swagger docs
)

// @title UNEM/UMT Membership API
// @version 1.0
// @description إدارة العضوية والمالية والهياكل للاتحاد الوطني للتعليم - الاتحاد المغربي للشغل
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@unem.ma

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed roles, settings, payment methods and provinces
	if err := config.NewSeeder(db, cfg.Seed).Run(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	svc := services.NewServices(db, cfg, mailer.NewSMTPMailer())

	// Load the settings snapshot before serving
	if err := svc.Settings.Reload(context.Background()); err != nil {
		log.Fatalf("❌ Failed to load settings: %v", err)
	}

	// Start scheduled jobs
	if err := svc.Scheduler.Start(cfg.Scheduler); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer svc.Scheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "UNEM/UMT API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg, config.HealthCheck)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
