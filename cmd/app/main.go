package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ilia-darchiashvili/bike-rentals/docs"

	"github.com/ilia-darchiashvili/bike-rentals/internal/config"
	"github.com/ilia-darchiashvili/bike-rentals/internal/db"
	"github.com/ilia-darchiashvili/bike-rentals/internal/email"
	"github.com/ilia-darchiashvili/bike-rentals/internal/geocode"
	"github.com/ilia-darchiashvili/bike-rentals/internal/logger"
	"github.com/ilia-darchiashvili/bike-rentals/internal/server"
	"github.com/ilia-darchiashvili/bike-rentals/internal/upload"
)

// @title Bike Rentals API
// @version 1.0
// @description API for bike listings, reservations and user accounts.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting Bike Rentals application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	emailService := email.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer emailService.Close()
	logger.Info("Email service initialized")

	geocoder := geocode.New(cfg.GeocoderURL, cfg.RedisAddr)
	defer geocoder.Close()

	uploads, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Fatalf("Failed to prepare upload directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	srv := server.New(database, cfg, emailService, geocoder, uploads)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
