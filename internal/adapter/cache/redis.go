package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	keyPagePrefix = "todo:page:"
	keyStatistics = "todo:stats"
	keyOverdue    = "todo:overdue"
	keyGeneration = "todo:generation"
)

var (
	_ port.TodoCache     = (*RedisTodoCache)(nil)
	_ port.HealthChecker = (*RedisTodoCache)(nil)
)

type RedisOptions struct {
	TTL time.Duration
	// MaxFailures consecutive errors open the breaker for OpenTimeout.
	MaxFailures uint32
	OpenTimeout time.Duration
}

// RedisTodoCache caches list pages, statistics and overdue results in Redis.
// Calls go through a circuit breaker so an unreachable Redis degrades to
// cache misses instead of adding its timeout to every request.
//
// The generation lives in Redis so every replica shares it. Entries are keyed
// by generation: a value written under an old one is unreachable and expires
// with its TTL.
type RedisTodoCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

func NewRedisTodoCache(rdb *redis.Client, opts RedisOptions, logger *zap.Logger) *RedisTodoCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}

	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RedisTodoCache{rdb: rdb, ttl: opts.TTL, breaker: breaker, logger: logger}
}

func (c *RedisTodoCache) Generation(ctx context.Context) (uint64, error) {
	b, err := c.breaker.Execute(func() ([]byte, error) {
		return c.rdb.Get(ctx, keyGeneration).Bytes()
	})

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}

	gen, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing cache generation %q: %w", b, err)
	}

	return gen, nil
}

func (c *RedisTodoCache) GetPage(ctx context.Context, gen uint64, key string) (*port.TodoPage, bool, error) {
	var page port.TodoPage

	found, err := c.get(ctx, generationKey(gen, keyPagePrefix+key), &page)
	if !found {
		return nil, false, err
	}

	return &page, true, nil
}

func (c *RedisTodoCache) SetPage(ctx context.Context, gen uint64, key string, page port.TodoPage) error {
	return c.set(ctx, generationKey(gen, keyPagePrefix+key), page)
}

func (c *RedisTodoCache) GetStatistics(ctx context.Context, gen uint64) (*domain.Statistics, bool, error) {
	var stats domain.Statistics

	found, err := c.get(ctx, generationKey(gen, keyStatistics), &stats)
	if !found {
		return nil, false, err
	}

	return &stats, true, nil
}

func (c *RedisTodoCache) SetStatistics(ctx context.Context, gen uint64, stats domain.Statistics) error {
	return c.set(ctx, generationKey(gen, keyStatistics), stats)
}

func (c *RedisTodoCache) GetOverdue(ctx context.Context, gen uint64) ([]domain.Todo, bool, error) {
	var todos []domain.Todo

	found, err := c.get(ctx, generationKey(gen, keyOverdue), &todos)
	if !found {
		return nil, false, err
	}

	if todos == nil {
		todos = []domain.Todo{}
	}

	return todos, true, nil
}

func (c *RedisTodoCache) SetOverdue(ctx context.Context, gen uint64, todos []domain.Todo) error {
	return c.set(ctx, generationKey(gen, keyOverdue), todos)
}

// InvalidateAll starts a new generation, then removes what the previous one
// stored. Entries written late under the previous generation are never read.
func (c *RedisTodoCache) InvalidateAll(ctx context.Context) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		gen, err := c.rdb.Incr(ctx, keyGeneration).Uint64()
		if err != nil {
			return nil, err
		}

		iter := c.rdb.Scan(ctx, 0, generationKey(gen-1, "todo:*"), 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return nil, err
			}
		}

		return nil, iter.Err()
	})

	if err != nil {
		return fmt.Errorf("invalidating todo cache: %w", err)
	}

	return nil
}

func (c *RedisTodoCache) Name() string {
	return "redis"
}

func (c *RedisTodoCache) HealthCheck(ctx context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return errors.New("redis: failing (circuit breaker open)")
	}

	return c.rdb.Ping(ctx).Err()
}

func (c *RedisTodoCache) get(ctx context.Context, key string, dest any) (bool, error) {
	b, err := c.breaker.Execute(func() ([]byte, error) {
		return c.rdb.Get(ctx, key).Bytes()
	})

	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	if err := json.Unmarshal(b, dest); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false, nil
	}

	return true, nil
}

func (c *RedisTodoCache) set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.rdb.Set(ctx, key, b, c.ttl).Err()
	})

	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

// generationKey turns "todo:stats" into "todo:7:stats".
func generationKey(gen uint64, key string) string {
	return fmt.Sprintf("todo:%d:%s", gen, strings.TrimPrefix(key, "todo:"))
}
