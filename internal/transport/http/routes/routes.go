package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/infra/config"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/redis"
	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/handlers"
	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/middleware"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Passwords    *usecase.PasswordService
	Profiles     *usecase.ProfileService
	Verification *usecase.VerificationService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    *pgxpool.Pool
	Cache       *redis.Client
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	r.Use(deps.Metrics.Handler())

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	healthHandler := handlers.NewHealthHandler(deps.Database, deps.Cache, deps.Logger)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Logger)
	registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration, deps.Services.Auth, deps.Logger)
	passwordHandler := handlers.NewPasswordHandler(deps.Services.Passwords, deps.Logger)
	profileHandler := handlers.NewProfileHandler(deps.Services.Profiles, deps.Logger)
	verificationHandler := handlers.NewVerificationHandler(deps.Services.Verification, deps.Logger)

	api := r.Group("/api")
	{
		loginMiddlewares := buildLoginMiddlewares(deps)
		resetMiddlewares := buildPasswordResetMiddlewares(deps)

		api.POST("/register", append(loginMiddlewares, registrationHandler.Register)...)
		api.POST("/login", append(loginMiddlewares, authHandler.Login)...)
		api.POST("/forgot-password", append(resetMiddlewares, passwordHandler.Forgot)...)
		api.POST("/reset-password", append(resetMiddlewares, passwordHandler.Reset)...)

		protected := api.Group("")
		protected.Use(authMiddleware)
		protected.GET("/user", authHandler.CurrentUser)
		protected.POST("/logout", authHandler.Logout)
		protected.POST("/confirm-password", authHandler.ConfirmPassword)
		protected.GET("/profile", profileHandler.Show)
		protected.PATCH("/profile", profileHandler.Update)
		protected.DELETE("/profile", profileHandler.Destroy)
		protected.PUT("/password", passwordHandler.Update)
		protected.POST("/email/verification-notification", verificationHandler.SendNotification)
		protected.POST("/verify-email", verificationHandler.Verify)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

func buildPasswordResetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.PasswordResetMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Hour
	}

	rule := middleware.RateLimitRule{
		Name:       "password_reset_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
