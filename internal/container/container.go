package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appMiddleware "github.com/FACorreiaa/wanderplan/app/middleware"
	"github.com/FACorreiaa/wanderplan/config"
	generativeAI "github.com/FACorreiaa/wanderplan/internal/api/generative_ai"
	"github.com/FACorreiaa/wanderplan/internal/api/itinerary"
	llmInteraction "github.com/FACorreiaa/wanderplan/internal/api/llm_interaction"
	"github.com/FACorreiaa/wanderplan/internal/api/publication"
	"github.com/FACorreiaa/wanderplan/internal/api/user"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	ItineraryRepo    itinerary.Repository
	ItineraryService itinerary.Service
	ItineraryHandler *itinerary.HandlerImpl
	RateLimiter      *appMiddleware.RateLimiter
}

// NewContainer wires repositories, services and handlers on top of an
// initialised pool. The pool stays owned by the caller.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Pool: pool}

	poolCache, err := c.newPoolCache(ctx)
	if err != nil {
		return nil, err
	}

	llm, err := generativeAI.NewTextGenerator(ctx, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.Temperature)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise llm client: %w", err)
	}
	if _, unconfigured := llm.(*generativeAI.UnconfiguredClient); unconfigured {
		logger.Warn("No LLM API key configured; itinerary requests will fail with llm_not_configured",
			slog.String("provider", cfg.LLM.Provider))
	}

	publicationRepo := publication.NewRepository(pool, logger)
	publicationService := publication.NewServiceImpl(publicationRepo, poolCache, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)

	interactionRepo := llmInteraction.NewPostgresLlmInteractionRepo(pool, logger)

	c.ItineraryRepo = itinerary.NewRepository(pool, logger)
	c.ItineraryService = itinerary.NewServiceImpl(
		c.ItineraryRepo,
		publicationService,
		userService,
		llm,
		interactionRepo,
		cfg.LLM.Timeout,
		logger,
	)
	c.ItineraryHandler = itinerary.NewHandler(c.ItineraryService, logger)
	c.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit, logger)

	return c, nil
}

func (c *Container) newPoolCache(ctx context.Context) (publication.PoolCache, error) {
	ttl := c.Config.Itinerary.PoolCacheTTL
	switch c.Config.Itinerary.PoolCacheDriver {
	case "redis":
		rcfg := c.Config.Repositories.Redis
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     rcfg.Addr,
			Password: rcfg.Password,
			DB:       rcfg.DB,
		})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", rcfg.Addr, err)
		}
		c.Logger.Info("Publication pool cache backed by redis", slog.String("addr", rcfg.Addr), slog.Duration("ttl", ttl))
		return publication.NewRedisPoolCache(c.Redis, ttl, c.Logger), nil
	case "memory", "":
		c.Logger.Info("Publication pool cache in memory", slog.Duration("ttl", ttl))
		return publication.NewMemoryPoolCache(ttl), nil
	default:
		return nil, fmt.Errorf("unknown pool cache driver %q", c.Config.Itinerary.PoolCacheDriver)
	}
}

// Close releases the resources the container opened itself.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Error("Failed to close redis client", slog.Any("error", err))
		}
	}
	c.Logger.Info("Container resources released")
}
