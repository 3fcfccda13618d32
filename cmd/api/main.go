package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"handcrafted-haven/internal/config"
	"handcrafted-haven/internal/database"
	"handcrafted-haven/internal/logger"
	"handcrafted-haven/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

// connectRedis returns nil when Redis is disabled or unreachable; the API
// then runs without rate limiting and review caching.
func connectRedis(cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("Redis disabled, rate limiting and review cache are off")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, continuing without it",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		client.Close()
		return nil
	}

	log.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return client
}

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Server.Env)
	defer log.Sync()

	log.Info("Starting Handcrafted Haven API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	if cfg.Database.UsesLocalDefault() && !cfg.Server.IsDevelopment() {
		log.Warn("No DATABASE_URL configured, falling back to the local development database")
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(dbService.DB(), "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	redisClient := connectRedis(cfg.Redis, log)

	srv := server.NewServer(cfg, log, dbService, redisClient)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
