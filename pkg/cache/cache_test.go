package cache

import (
	"context"
	"testing"
	"time"

	"shareit/pkg/config"
	"shareit/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisUserCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	c := NewRedisUserCache(client, time.Minute)
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		got, err := c.Get(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, &models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}))

		got, err := c.Get(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("Expires", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, &models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}))
		s.FastForward(2 * time.Minute)

		got, err := c.Get(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, &models.User{ID: 3, Name: "Carol", Email: "carol@example.com"}))
		require.NoError(t, c.Delete(ctx, 3))

		got, err := c.Get(ctx, 3)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptValue", func(t *testing.T) {
		require.NoError(t, s.Set(userKey(4), "{not json"))
		_, err := c.Get(ctx, 4)
		assert.Error(t, err)
	})
}

func TestNewRedisClientDisabled(t *testing.T) {
	assert.Nil(t, NewRedisClient(config.RedisConfig{}))
}

func TestNoop(t *testing.T) {
	var c UserCache = Noop{}
	got, err := c.Get(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Set(context.Background(), &models.User{ID: 1}))
	assert.NoError(t, c.Delete(context.Background(), 1))
}
