package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/cache"
	"github.com/GTDGit/accounts_admin/internal/config"
	"github.com/GTDGit/accounts_admin/internal/database"
	"github.com/GTDGit/accounts_admin/internal/handler"
	"github.com/GTDGit/accounts_admin/internal/middleware"
	"github.com/GTDGit/accounts_admin/internal/repository"
	"github.com/GTDGit/accounts_admin/internal/service"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// main is the entrypoint for the accounts back-office API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting accounts admin")

	// 3. Register admin descriptors; a bad descriptor is a startup error
	registry := admin.NewRegistry(cfg.Admin.StrictDescriptors)
	if err := registry.Register(admin.UserAccountEntity(), admin.UserAccountDescriptor()); err != nil {
		log.Error().Err(err).Msg("admin descriptor registration failed")
		fmt.Fprintf(os.Stderr, "admin descriptor registration failed: %v\n", err)
		os.Exit(1)
	}

	// 4. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, cfg.Admin.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 5. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 6. Repositories and services
	tokens, err := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Error().Err(err).Msg("invalid JWT configuration")
		fmt.Fprintf(os.Stderr, "invalid JWT configuration: %v\n", err)
		os.Exit(1)
	}
	userRepo := repository.NewUserAccountRepository(db)
	throttle := cache.NewLoginThrottle(redisClient, cfg.Admin.LoginMaxAttempts, cfg.Admin.LoginAttemptWindow)
	adminAuthSvc := service.NewAdminAuthService(userRepo, throttle, tokens)
	userAdminSvc := service.NewUserAdminService(userRepo, registry)

	// 7. Handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.PingFunc{
			"database": db.PingContext,
			"redis":    redisClient.Ping,
		}),
		Auth:          handler.NewAuthHandler(adminAuthSvc),
		ModelRegistry: handler.NewModelRegistryHandler(registry),
		UserAccounts:  handler.NewUserAccountAdminHandler(userAdminSvc),
	}

	// 8. Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := newRouter(cfg)
	if err != nil {
		log.Error().Err(err).Msg("router setup failed")
		fmt.Fprintf(os.Stderr, "router setup failed: %v\n", err)
		os.Exit(1)
	}
	setupRoutes(router, handlers, middleware.NewJWTMiddleware(tokens, userRepo))

	// 9. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 10. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	ModelRegistry *handler.ModelRegistryHandler
	UserAccounts  *handler.UserAccountAdminHandler
}

// newRouter creates the engine with global middleware. X-Forwarded-For is
// honoured only from cfg.TrustedProxies; with none configured the client IP
// is the TCP peer.
func newRouter(cfg *config.Config) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	return router, nil
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Registered models
		admin.GET("/models", handlers.ModelRegistry.ListModels)
		admin.GET("/models/:entity/descriptor", handlers.ModelRegistry.GetDescriptor)

		// User accounts
		admin.GET("/user-accounts", handlers.UserAccounts.ChangeList)
		admin.PATCH("/user-accounts", handlers.UserAccounts.BulkEdit)
		admin.GET("/user-accounts/:id", handlers.UserAccounts.Detail)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
