package cache

import (
	"context"
	"testing"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTodoCache(t *testing.T) {
	ctx := context.Background()
	c := NewLocalTodoCache(time.Minute)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)

	_, found, err := c.GetPage(ctx, gen, "k")
	require.NoError(t, err)
	assert.False(t, found)

	page := port.TodoPage{Todos: []domain.Todo{{ID: "1", Title: "Buy milk"}}, Total: 1}
	require.NoError(t, c.SetPage(ctx, gen, "k", page))
	require.NoError(t, c.SetStatistics(ctx, gen, domain.NewStatistics()))
	require.NoError(t, c.SetOverdue(ctx, gen, []domain.Todo{}))

	cached, found, _ := c.GetPage(ctx, gen, "k")
	assert.True(t, found)
	assert.Equal(t, page, *cached)

	_, found, _ = c.GetStatistics(ctx, gen)
	assert.True(t, found)

	overdue, found, _ := c.GetOverdue(ctx, gen)
	assert.True(t, found)
	assert.Empty(t, overdue)

	require.NoError(t, c.InvalidateAll(ctx))

	next, _ := c.Generation(ctx)
	assert.Equal(t, gen+1, next)

	_, found, _ = c.GetPage(ctx, next, "k")
	assert.False(t, found)

	_, found, _ = c.GetStatistics(ctx, next)
	assert.False(t, found)

	_, found, _ = c.GetOverdue(ctx, next)
	assert.False(t, found)
}

func TestLocalTodoCache_DropsStaleGenerations(t *testing.T) {
	ctx := context.Background()
	c := NewLocalTodoCache(time.Minute)

	stale, _ := c.Generation(ctx)
	require.NoError(t, c.InvalidateAll(ctx))

	page := port.TodoPage{Todos: []domain.Todo{}, Total: 0}
	require.NoError(t, c.SetPage(ctx, stale, "k", page))
	require.NoError(t, c.SetStatistics(ctx, stale, domain.NewStatistics()))

	current, _ := c.Generation(ctx)

	_, found, _ := c.GetPage(ctx, current, "k")
	assert.False(t, found)

	_, found, _ = c.GetStatistics(ctx, current)
	assert.False(t, found)

	require.NoError(t, c.SetPage(ctx, current, "k", page))

	_, found, _ = c.GetPage(ctx, stale, "k")
	assert.False(t, found)

	_, found, _ = c.GetPage(ctx, current, "k")
	assert.True(t, found)
}

func TestNoOpTodoCache(t *testing.T) {
	ctx := context.Background()
	c := NoOpTodoCache{}
	gen, _ := c.Generation(ctx)

	require.NoError(t, c.SetStatistics(ctx, gen, domain.NewStatistics()))

	stats, found, err := c.GetStatistics(ctx, gen)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, stats)
}
