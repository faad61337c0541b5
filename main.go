package main

import (
	"database/sql"
	"log"

	"mailgate/internal/config"
	"mailgate/internal/handler"
	"mailgate/internal/logger"
	"mailgate/internal/mailbox"
	"mailgate/internal/middleware"
	"mailgate/internal/repository"
	"mailgate/internal/repository/memory"
	"mailgate/internal/repository/postgres"
	"mailgate/internal/router"
	"mailgate/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config validation failed:", err)
	}

	appLogger := logger.New()

	// Postgres when DATABASE_URL is set, in-memory otherwise
	var userRepo repository.UserRepository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer db.Close()

		if err := postgres.InitializeDatabase(db); err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		userRepo = postgres.NewPostgresUserRepository(db)
		appLogger.Info("Using PostgreSQL user repository")
	} else {
		userRepo = memory.NewInMemoryUserRepository()
		appLogger.Info("Using in-memory user repository")
	}

	authService := service.NewAuthService(userRepo, appLogger)
	mailClient := mailbox.NewGmailClient(cfg.GoogleClientID, cfg.GoogleClientSecret, userRepo, appLogger)

	rateLimiter := middleware.NewRateLimiter(middleware.NewMemoryWindowStore(), nil, appLogger)

	authHandler := handler.NewAuthHandler(authService, cfg, appLogger)
	emailHandler := handler.NewEmailHandler(mailClient, cfg, appLogger)
	userHandler := handler.NewUserHandler(authService, appLogger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	router.SetupRoutes(e, cfg, appLogger, rateLimiter, authHandler, emailHandler, userHandler)

	appLogger.Info("Starting server on port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		appLogger.Error("Server stopped:", err)
	}
}
