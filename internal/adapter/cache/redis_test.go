package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"

	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis cache tests")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unreachable at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})

	return rdb
}

func TestRedisTodoCache_RoundTripAndInvalidate(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	c := NewRedisTodoCache(newTestRedis(t), RedisOptions{TTL: time.Minute}, nil)

	due := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	page := port.TodoPage{
		Todos: []domain.Todo{{ID: "abc", Title: "Buy milk", Priority: domain.PriorityHigh, DueDate: &due, Tags: []string{"home"}}},
		Total: 1,
	}

	gen, err := c.Generation(ctx)
	Expect(err).To(BeNil())

	Expect(c.SetPage(ctx, gen, "p1", page)).To(Succeed())
	Expect(c.SetPage(ctx, gen, "p2", page)).To(Succeed())
	Expect(c.SetStatistics(ctx, gen, domain.NewStatistics())).To(Succeed())

	cached, found, err := c.GetPage(ctx, gen, "p1")
	Expect(err).To(BeNil())
	Expect(found).To(BeTrue())
	Expect(cached.Total).To(Equal(int64(1)))
	Expect(cached.Todos[0].DueDate.Equal(due)).To(BeTrue())
	Expect(cached.Todos[0].Priority).To(Equal(domain.PriorityHigh))

	stats, found, _ := c.GetStatistics(ctx, gen)
	Expect(found).To(BeTrue())
	Expect(stats.ByPriority).To(HaveLen(3))

	Expect(c.InvalidateAll(ctx)).To(Succeed())

	next, err := c.Generation(ctx)
	Expect(err).To(BeNil())
	Expect(next).To(Equal(gen + 1))

	_, found, _ = c.GetPage(ctx, next, "p2")
	Expect(found).To(BeFalse())

	_, found, _ = c.GetStatistics(ctx, next)
	Expect(found).To(BeFalse())

	Expect(c.rdb.Exists(ctx, generationKey(gen, keyPagePrefix+"p1")).Val()).To(Equal(int64(0)))

	// A read that began before the invalidation stores under the old generation.
	Expect(c.SetStatistics(ctx, gen, domain.NewStatistics())).To(Succeed())

	_, found, _ = c.GetStatistics(ctx, next)
	Expect(found).To(BeFalse())

	Expect(c.HealthCheck(ctx)).To(Succeed())
}

func TestRedisTodoCache_BreakerOpensOnFailures(t *testing.T) {
	RegisterTestingT(t)

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	c := NewRedisTodoCache(rdb, RedisOptions{TTL: time.Minute, MaxFailures: 2, OpenTimeout: time.Minute}, nil)

	for range 3 {
		_, found, err := c.GetStatistics(context.Background(), 0)
		Expect(found).To(BeFalse())
		Expect(err).To(HaveOccurred())
	}

	Expect(c.HealthCheck(context.Background())).To(MatchError(ContainSubstring("circuit breaker open")))

	_, err := c.Generation(context.Background())
	Expect(err).To(HaveOccurred())
}

func TestGenerationKey(t *testing.T) {
	RegisterTestingT(t)

	Expect(generationKey(7, keyStatistics)).To(Equal("todo:7:stats"))
	Expect(generationKey(0, keyPagePrefix+"abc")).To(Equal("todo:0:page:abc"))
}
