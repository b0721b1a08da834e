package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/auth"
	"github.com/outsourceats/hirex/internal/config"
	"github.com/outsourceats/hirex/internal/handlers"
	"github.com/outsourceats/hirex/internal/router"
	"github.com/outsourceats/hirex/internal/scheduler"
	"github.com/outsourceats/hirex/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	handlers.Configure(cfg)
	handlers.SetIssuer(issuer)
	services.Configure(services.Notifier{
		SlackWebhook:   cfg.SlackWebhook,
		DiscordWebhook: cfg.DiscordWebhook,
	})

	sweep := scheduler.NewScheduler(cfg.SLASweepInterval)
	sweep.Start()
	defer sweep.Stop()

	r := router.NewRouter(cfg, issuer)

	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
