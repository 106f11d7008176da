package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/go-food-course-suggestions/app/httpclient"
	"github.com/FACorreiaa/go-food-course-suggestions/config"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/course"
	generativeAI "github.com/FACorreiaa/go-food-course-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/geocode"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/store"
)

const providerGemini = "gemini"

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client

	StoreHandler          *store.HandlerImpl
	CourseHandler         *course.HandlerImpl
	RecommendationHandler *recommendation.HandlerImpl
}

// NewContainer builds every component once, in dependency order, on top of an
// initialised database pool.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	up := cfg.Upstream

	// Region listings
	var listingCache store.ListingCache
	var redisClient *redis.Client
	switch {
	case cfg.Repositories.Redis.Enabled:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Repositories.Redis.Addr,
			Password: cfg.Repositories.Redis.Password,
			DB:       cfg.Repositories.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, listings will be fetched on every request", slog.Any("error", err))
		}
		listingCache = store.NewRedisListingCache(redisClient, up.Regional.CacheTTL, logger)
	case up.Regional.CacheTTL > 0:
		listingCache = store.NewMemoryListingCache(up.Regional.CacheTTL)
	}
	fetcher := store.NewFetcher(httpclient.New(up.HTTP, 0), up.Regional, listingCache, logger)

	// Geocoding
	geocoder := geocode.NewKakaoClient(httpclient.New(up.HTTP, 0), up.Geocoder, logger)
	enricher := geocode.NewEnricher(geocoder, up.Geocoder.Concurrency, logger)

	// Stores
	storeRepo := store.NewRepository(pool, logger)
	resolver := store.NewResolver(storeRepo, fetcher, up.Regional.ImageBaseURL, logger)
	storeService := store.NewServiceImpl(fetcher, fetcher, enricher, resolver, storeRepo, up.Regional.ImageBaseURL, logger)

	// Courses
	courseRepo := course.NewRepository(pool, logger)
	courseService := course.NewServiceImpl(courseRepo, resolver, cfg.Course.MaxStops, logger)

	// Recommendations
	aiClient, err := newAIClient(ctx, up.HTTP, up.AI, logger)
	if err != nil {
		return nil, err
	}
	recommendationService := recommendation.NewServiceImpl(
		fetcher,
		enricher,
		recommendation.NewPromptBuilder(cfg.Course),
		aiClient,
		recommendation.NewResponseParser(cfg.Course.MaxStops, logger),
		courseService,
		logger,
	)

	return &Container{
		Config:                cfg,
		Logger:                logger,
		Pool:                  pool,
		Redis:                 redisClient,
		StoreHandler:          store.NewHandlerImpl(storeService, logger),
		CourseHandler:         course.NewHandlerImpl(courseService, logger),
		RecommendationHandler: recommendation.NewHandlerImpl(recommendationService, logger),
	}, nil
}

func newAIClient(ctx context.Context, httpCfg config.HTTPClientConfig, cfg config.AIConfig, logger *slog.Logger) (recommendation.AIClient, error) {
	client := httpclient.New(httpCfg, cfg.Timeout)
	if cfg.Provider == providerGemini {
		gemini, err := generativeAI.NewGeminiClient(ctx, cfg, client.GetClient(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		return gemini, nil
	}
	return generativeAI.NewChatCompletionClient(client, cfg, logger), nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
