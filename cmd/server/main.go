package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	httpapi "studyhub-backend/internal/api/http"
	"studyhub-backend/internal/config"
	"studyhub-backend/internal/jobs"
	"studyhub-backend/internal/joincode"
	"studyhub-backend/internal/logger"
	"studyhub-backend/internal/repository/postgres"
	"studyhub-backend/internal/scheduler"
	"studyhub-backend/internal/security"
	"studyhub-backend/internal/service"

	_ "github.com/lib/pq"
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
	logger.Info("Starting StudyHub Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
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
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	// Initialize Email Service
	emailSvc := service.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.User,
		cfg.SMTP.Password,
		cfg.SMTP.From,
	)

	// Initialize Services
	authSvc := service.NewAuthService(store.UserRepository, store.ProfileRepository, tokenManager)
	userSvc := service.NewUserService(store.UserRepository, store.ProfileRepository)
	admissionSvc := service.NewAdmissionService(
		store.SessionRepository,
		store.MembershipRepository,
		store.AttendanceRepository,
		store.UserRepository,
		emailSvc,
		joincode.New(cfg.Admission.CodeLength),
		cfg.Admission.MaxCodeAttempts,
	)
	messageSvc := service.NewMessageService(store.MessageRepository, store.MembershipRepository, store.SessionRepository)
	memorySvc := service.NewMemoryService(store.MemoryRepository)

	// Start the cron scheduler
	jobRunner := jobs.NewJobRunner(db, emailSvc, cfg)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	defer sched.Stop()

	// Set up HTTP server
	handlers := httpapi.NewHandlers(authSvc, userSvc, admissionSvc, messageSvc, memorySvc)
	router := httpapi.NewRouter(handlers, tokenManager)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
