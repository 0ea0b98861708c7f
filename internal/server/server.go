package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"catalog-webflux/internal/config"
	"catalog-webflux/internal/database"
	"catalog-webflux/internal/flow"
	custommiddleware "catalog-webflux/internal/middleware"
	"catalog-webflux/internal/pipeline"
	"catalog-webflux/internal/render"
	"catalog-webflux/internal/service"
	"catalog-webflux/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitKeyPrefix = "catalog_rate_limit"

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	store  *database.Store
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, store *database.Store) (*Server, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack(logger) {
		router.Use(mw)
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Health(ctx); err != nil {
			logger.Warn("Health check failed", zap.String("driver", store.Driver), zap.Error(err))
			custommiddleware.RespondWithJSONError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"store":  store.Driver,
		})
	})

	// Initialize services
	catalog := service.NewCatalogService(store.Categories, store.Products)
	policies := pipeline.NewPolicies(cfg.Listing)
	controller := flow.NewController(catalog, pipeline.New(catalog, logger), logger)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(controller, renderer, policies, logger)

	var (
		redisClient *redis.Client
		mutating    func(http.Handler) http.Handler
	)
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting will let requests through", zap.Error(err))
		}

		mutating = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         rateLimitKeyPrefix,
		}, logger)
	}

	// Register routes
	catalogHandler.RegisterRoutes(router, mutating)

	server := &Server{
		Server: &http.Server{
			Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:     router,
			IdleTimeout: time.Minute,
			ReadTimeout: 10 * time.Second,
			// Streamed listings clear their own write deadline
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		store:  store,
		redis:  redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.Close(ctx); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
