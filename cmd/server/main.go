package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/auth"
	"github.com/bennettsh/authkit/internal/config"
	"github.com/bennettsh/authkit/internal/cookies"
	"github.com/bennettsh/authkit/internal/database"
	"github.com/bennettsh/authkit/internal/handlers"
	"github.com/bennettsh/authkit/internal/logger"
	"github.com/bennettsh/authkit/internal/middleware"
	"github.com/bennettsh/authkit/internal/oauth"
	"github.com/bennettsh/authkit/internal/session"
	"github.com/bennettsh/authkit/internal/telemetry"
)

const serviceName = "authkit"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.DebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", cfg.DebugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Repositories and domain services.
	users := database.NewUserRepository(db)
	accounts := database.NewAccountRepository(db)
	sessions := database.NewSessionRepository(db)

	sessionManager := session.NewManager(sessions, zapLogger)
	authService := auth.NewService(users, accounts, sessionManager, db, zapLogger)

	var providers []oauth.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, oauth.NewGoogle(oauth.ClientCredentials{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/api/auth/oauth/google/callback",
		}))
		zapLogger.Info("oauth_provider_registered", zap.String("provider", "google"))
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		providers = append(providers, oauth.NewGitHub(oauth.ClientCredentials{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.BaseURL + "/api/auth/oauth/github/callback",
		}))
		zapLogger.Info("oauth_provider_registered", zap.String("provider", "github"))
	}
	oauthManager := oauth.NewManager(providers, users, accounts, sessionManager, db, zapLogger)

	signer := cookies.NewSigner(cfg.CookieSecret, cfg.SecureCookies)

	authHandler := handlers.NewAuthHandler(authService, signer, zapLogger)
	oauthHandler := handlers.NewOAuthHandler(oauthManager, signer, cfg.FrontendURL, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisClient)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.AuthRateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	requireSession := middleware.SessionAuth(sessionManager, signer, zapLogger)

	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.Recover(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/api/auth").Subrouter()

	// Unauthenticated credential endpoints take the brunt of brute-force
	// traffic; they get the rate limiter.
	publicAuth := authRouter.PathPrefix("").Subrouter()
	publicAuth.Use(rateLimitMW)
	publicAuth.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	publicAuth.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	publicAuth.HandleFunc("/oauth/{provider}", oauthHandler.Initiate).Methods(http.MethodGet)
	publicAuth.HandleFunc("/oauth/{provider}/callback", oauthHandler.Callback).Methods(http.MethodGet)

	protectedAuth := authRouter.PathPrefix("").Subrouter()
	protectedAuth.Use(requireSession)
	protectedAuth.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	protectedAuth.HandleFunc("/logout-all", authHandler.LogoutAll).Methods(http.MethodPost)
	protectedAuth.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	protectedAuth.HandleFunc("/me", authHandler.DeleteMe).Methods(http.MethodDelete)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        corsHandler.Handler(r),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
