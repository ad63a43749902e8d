package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/config"
)

func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	client := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379"})
	if err := Ping(context.Background(), client); err != nil {
		t.Skipf("Redis接続エラー: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAvailabilityCache(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAvailabilityCache(client)
	ctx := context.Background()
	eventID := "test-event-123"

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		_ = cache.Invalidate(ctx, eventID)
		_, err := cache.GetAvailableSeats(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("キャッシュにセットした値を取得できる", func(t *testing.T) {
		err := cache.SetAvailableSeats(ctx, eventID, 100, 30*time.Second)
		require.NoError(t, err)

		count, err := cache.GetAvailableSeats(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 100, count)
	})

	t.Run("キャッシュを無効化できる", func(t *testing.T) {
		err := cache.SetAvailableSeats(ctx, eventID, 50, 30*time.Second)
		require.NoError(t, err)

		err = cache.Invalidate(ctx, eventID)
		require.NoError(t, err)

		_, err = cache.GetAvailableSeats(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestAvailabilityCache_TTL(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAvailabilityCache(client)
	ctx := context.Background()
	eventID := "test-event-ttl"

	t.Run("TTL経過後はキャッシュミスになる", func(t *testing.T) {
		err := cache.SetAvailableSeats(ctx, eventID, 10, 100*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(200 * time.Millisecond)

		_, err = cache.GetAvailableSeats(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}
