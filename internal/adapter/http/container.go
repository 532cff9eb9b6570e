package http

import (
	"context"
	"fmt"

	"todoapi/internal/adapter/cache"
	"todoapi/internal/adapter/database/memory"
	"todoapi/internal/adapter/database/mongodb"
	"todoapi/internal/adapter/database/mongodb/repository"
	"todoapi/internal/adapter/http/handler"
	"todoapi/internal/core/port"
	"todoapi/internal/core/query"
	"todoapi/internal/core/service"
	"todoapi/pkg/config"
	"todoapi/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Container struct {
	TodoRepo  port.TodoRepository
	TodoCache port.TodoCache

	TodoService port.TodoService

	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler

	closers []func(context.Context) error
}

// NewContainer wires the store, cache, service and handlers selected by cfg.
// Close releases every connection it opened.
func NewContainer(ctx context.Context, cfg config.Config, metrics port.Metrics, log *logger.Logger) (*Container, error) {
	c := &Container{}

	repo, err := c.newRepository(ctx, cfg, metrics, log)
	if err != nil {
		return nil, err
	}

	todoCache, checkers, err := c.newCache(cfg, log)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	c.TodoRepo = repo
	c.TodoCache = todoCache
	c.TodoService = service.NewTodoService(repo, todoCache, metrics, log.Zap())

	c.TodoHandler = handler.NewTodoHandler(c.TodoService, query.Options{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	}, log)

	c.HealthHandler = handler.NewHealthHandler(handler.StoreChecker{Repo: repo}, cfg.App.Version, checkers...)

	return c, nil
}

func (c *Container) newRepository(ctx context.Context, cfg config.Config, metrics port.Metrics, log *logger.Logger) (port.TodoRepository, error) {
	if cfg.App.Store == config.StoreMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		return memory.NewTodoRepository(), nil
	}

	db, err := mongodb.NewDB(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		Collection:     cfg.Mongo.Collection,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})

	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	c.closers = append(c.closers, db.Close)

	log.Info("Connected to MongoDB",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Mongo.Collection),
	)

	return repository.NewTodoRepository(db.Todos(), metrics, log.Zap()), nil
}

func (c *Container) newCache(cfg config.Config, log *logger.Logger) (port.TodoCache, []port.HealthChecker, error) {
	switch cfg.App.Cache {
	case config.CacheRedis:
		opts, err := cfg.Redis.Options()
		if err != nil {
			return nil, nil, err
		}

		rdb := redis.NewClient(opts)

		c.closers = append(c.closers, func(context.Context) error { return rdb.Close() })

		redisCache := cache.NewRedisTodoCache(rdb, cache.RedisOptions{TTL: cfg.Redis.TTL}, log.Zap())

		log.Info("Using Redis cache", zap.String("addr", opts.Addr), zap.Bool("tls", opts.TLSConfig != nil))

		return redisCache, []port.HealthChecker{redisCache}, nil
	case config.CacheLocal:
		return cache.NewLocalTodoCache(cfg.Redis.TTL), nil, nil
	default:
		return cache.NoOpTodoCache{}, nil, nil
	}
}

func (c *Container) Close(ctx context.Context) error {
	var firstErr error

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
