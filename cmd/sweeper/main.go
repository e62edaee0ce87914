package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/config"
	"github.com/bennettsh/authkit/internal/database"
	"github.com/bennettsh/authkit/internal/logger"
	"github.com/bennettsh/authkit/internal/session"
)

// The sweeper deletes expired sessions on a schedule. It runs alongside
// the API servers; the Redis lock keeps concurrent instances from
// sweeping at the same time.
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

	interval := time.Duration(cfg.SweepIntervalHours) * time.Hour
	zapLogger.Info("starting_sweeper", zap.Duration("interval", interval))

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

	var lock session.Locker = session.NoopLock{}
	if cfg.RedisURL != "" {
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
		lock = session.NewRedisLock(redisClient, "authkit:session-sweep", interval/2)
		zapLogger.Info("sweep_lock_enabled")
	}

	manager := session.NewManager(database.NewSessionRepository(db), zapLogger)
	sweeper := session.NewSweeper(manager, lock, interval, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		zapLogger.Info("sweeper_shutting_down")
		cancel()
	}()

	if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Fatal("sweeper_stopped_with_error", zap.Error(err))
	}

	zapLogger.Info("sweeper_exited")
}
