package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credtrack/internal/api"
	"credtrack/internal/app/service"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/repository"
	"credtrack/internal/platform/cache"
	"credtrack/internal/platform/config"
	"credtrack/internal/platform/database"
	"credtrack/internal/platform/mailer"
	"credtrack/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	if err := database.Migrate(context.Background()); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}
	fmt.Println("Migrations applied.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize platform adapters
	fileStore, err := storage.NewCloudinaryStore(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryAPIKey,
		config.AppConfig.CloudinaryAPISecret,
	)
	if err != nil {
		log.Fatalf("Could not initialize file storage: %v", err)
	}

	mail := mailer.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUser,
		config.AppConfig.SMTPPassword,
		config.AppConfig.MailFrom,
		config.AppConfig.MailFromName,
		logger,
	)

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	credentialRepo := repository.NewPgCredentialRepository(database.DB)
	sessionRepo := repository.NewRedisSessionRepository(cache.RDB)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, sessionRepo, fileStore, mail, logger)
	credentialService := service.NewCredentialService(credentialRepo, fileStore)
	userService := service.NewUserService(userRepo)
	superAdminService := service.NewSuperAdminService(userRepo, sessionRepo)
	notificationService := service.NewNotificationService(credentialRepo, userRepo, mail, logger)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(
		authService,
		credentialService,
		userService,
		superAdminService,
		notificationService,
		sessionRepo,
		userRepo,
		cache.RDB,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
