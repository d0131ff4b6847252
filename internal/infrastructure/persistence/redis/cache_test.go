package redis

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/pkg/circuitbreaker"
)

func TestKeys(t *testing.T) {
	c := newCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "student-records:group:42", c.groupKey(42))
	assert.Equal(t, "student-records:ratelimit:10.0.0.1:7", c.rateLimitKey("10.0.0.1", 7))

	scoped := newCache(c.client, "tenant-a:")
	assert.Equal(t, "tenant-a:group:42", scoped.groupKey(42))
}

func TestCache_ValidatesBeforeNetwork(t *testing.T) {
	// Клиент на заведомо закрытом адресе: проверки должны сработать до сети.
	c := newCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	_, err := NewRateLimiter(c, 1, time.Minute).Allow(ctx, "")
	assert.ErrorIs(t, err, errEmptyIdentifier)

	assert.ErrorIs(t, NewGroupCache(c).Set(ctx, nil, 0), ErrCacheNilValue)
}

func TestNewCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewCache(ctx, Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	assert.ErrorIs(t, err, ErrCacheConnection)
}

// Интеграционные тесты запускаются при заданном REDIS_ADDR (host:port).
func newIntegrationCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	c, err := NewCache(context.Background(), Options{Addr: addr, DB: 15, KeyPrefix: "student-records-test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGroupCache_Integration(t *testing.T) {
	c := newIntegrationCache(t)
	gc := NewGroupCache(c)
	ctx := context.Background()

	id := time.Now().UnixNano()
	t.Cleanup(func() { _ = gc.Invalidate(ctx, id) })

	g, err := gc.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, g)

	require.NoError(t, gc.Set(ctx, &group.Group{ID: id, Name: "CS-101"}, time.Minute))
	g, err = gc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "CS-101", g.Name)

	require.NoError(t, gc.Invalidate(ctx, id))
	g, err = gc.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestRateLimiter_Integration(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	rl := NewRateLimiter(c, 2, time.Minute)
	fixed := time.Now()
	rl.now = func() time.Time { return fixed }
	who := "test-" + strconv.FormatInt(fixed.UnixNano(), 10)

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, who)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, who)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupCache_BreakerOpensOnFailures(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	c := newCache(client, "")
	t.Cleanup(func() { _ = c.Close() })

	cb := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(2))
	gc := NewGroupCache(c, WithBreaker(cb))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := gc.Get(ctx, 1)
		require.Error(t, err)
		assert.False(t, circuitbreaker.IsRejected(err))
	}
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())

	_, err := gc.Get(ctx, 1)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, gc.Set(ctx, &group.Group{ID: 1, Name: "CS-101"}, 0), circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, gc.Invalidate(ctx, 1), circuitbreaker.ErrCircuitOpen)

	err = gc.Ping(ctx)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Contains(t, err.Error(), "test")
}
