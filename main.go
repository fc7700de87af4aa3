package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/jobs"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/notify"
	"clinic-scheduling-server/internal/routes"
	"clinic-scheduling-server/pkg/logging"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Seed demo doctors/patients for development runs
	if cfg.Environment == "development" {
		if err := models.SeedDemoData(db); err != nil {
			log.Fatalf("Error seeding demo data: %v", err)
		}
	}

	// Notification sink for lifecycle events (fire-and-forget)
	sink := notify.NewLogSink(logger)
	defer sink.Close()

	// Daily reminder job
	scheduler := jobs.NewScheduler(db, sink, logger)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes - passing DB and config to let routes.go create the handlers
	routes.SetupRoutes(router, db, cfg, sink)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Server running on port %s\n", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
