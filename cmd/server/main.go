package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"maktaba-backend/internal/api/rest"
	"maktaba-backend/internal/config"
	"maktaba-backend/internal/jobs"
	"maktaba-backend/internal/logger"
	"maktaba-backend/internal/repository/postgres"
	"maktaba-backend/internal/scheduler"
	"maktaba-backend/internal/security"
	"maktaba-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Maktaba Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize Email Service
	var emailSvc service.EmailService
	if cfg.Email.Enabled {
		emailSvc = service.NewEmailService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName)
		logger.Info("Email notifications enabled", "from", cfg.Email.From)
	} else {
		logger.Info("Email notifications disabled")
	}

	// Initialize Services
	authSvc := service.NewAuthService(store.UserRepository, tokenManager)
	circulationSvc := service.NewCirculationService(
		store.LoanRepository,
		store.BookRepository,
		store.UserRepository,
		emailSvc,
		cfg.FinePolicy(),
		cfg.Fines.RenewalPeriodDays,
	)
	reportsSvc := service.NewReportsService(store.LoanRepository, store.BookRepository, cfg.FinePolicy())

	// Initialize HTTP router
	router := rest.NewRouter(rest.RouterDeps{
		Auth:        authSvc,
		Circulation: circulationSvc,
		Reports:     reportsSvc,
		Tokens:      tokenManager,
		DB:          db,
		LoanDays:    cfg.Fines.LoanPeriodDays,
	})

	// Initialize scheduler with in-process jobs
	jobRunner := jobs.NewJobRunner(db, store, emailSvc, cfg)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
