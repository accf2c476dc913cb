package api

import (
	"net/http"
	"time"

	"credtrack/internal/api/handler"
	"credtrack/internal/api/middleware"
	"credtrack/internal/app/service"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/policy"
	"credtrack/internal/domain/repository"
	"credtrack/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

func NewRouter(
	authService *service.AuthService,
	credentialService *service.CredentialService,
	userService *service.UserService,
	superAdminService *service.SuperAdminService,
	notificationService *service.NotificationService,
	sessions repository.SessionRepository,
	users repository.UserRepository,
	rdb *redis.Client,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(rdb, config.AppConfig.RateLimitPerMinute))

	// Verifies the bearer token when present and puts claims in context.
	// Enforcement happens later, in middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	credentialHandler := handler.NewCredentialHandler(credentialService)
	userHandler := handler.NewUserHandler(userService)
	superAdminHandler := handler.NewSuperAdminHandler(superAdminService, sessions, users)
	emailHandler := handler.NewEmailHandler(notificationService)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Public routes
		v1.Group(func(public chi.Router) {
			authHandler.RegisterRoutes(public)
			public.Post("/super-admin/create", superAdminHandler.Create)
		})

		// Authenticated routes
		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator(sessions, users))

			authHandler.RegisterProtectedRoutes(authed)

			authed.Route("/credentials", credentialHandler.RegisterRoutes)

			authed.Route("/emails", func(emails chi.Router) {
				emails.Use(middleware.RequireAction(policy.ActionTriggerEmails))
				emailHandler.RegisterRoutes(emails)
			})

			authed.Route("/admin/users", func(admin chi.Router) {
				admin.Use(middleware.RequireAction(policy.ActionManageUsers))
				userHandler.RegisterRoutes(admin)
			})
		})
	})

	return r
}
