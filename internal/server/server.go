package server

import (
	"fmt"
	"net/http"
	"time"

	"handcrafted-haven/internal/cache"
	"handcrafted-haven/internal/config"
	"handcrafted-haven/internal/database"
	custommiddleware "handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/repository"
	"handcrafted-haven/internal/service"
	"handcrafted-haven/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	dbService   database.Service
	redisClient *redis.Client
}

// NewServer wires repositories, services and handlers onto one router.
// redisClient may be nil, in which case rate limiting and review caching are
// disabled.
func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	if redisClient != nil {
		// Counted per user when the caller presents a valid token, per address otherwise
		router.Use(custommiddleware.OptionalAuth(cfg.JWT.Secret, logger))
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	db := dbService.DB()

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := dbService.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		} else if version, err := database.SchemaVersion(db); err == nil {
			health["schema_version"] = fmt.Sprint(version)
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	reviewCache := cache.NewNoopReviewCache()
	if redisClient != nil {
		reviewCache = cache.NewRedisReviewCache(redisClient, cfg.Reviews.CacheTTL)
	}

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo, cfg.Cart, logger)
	reviewService := service.NewReviewService(reviewRepo, reviewCache, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	transport.NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(productService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewReviewHandler(reviewService, logger).RegisterRoutes(router, authMiddleware)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		dbService:   dbService,
		redisClient: redisClient,
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if err := s.dbService.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
