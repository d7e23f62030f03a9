package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetSetRoundTrip(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "user", "u-1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "user", "u-1", `{"id":"u-1"}`, time.Minute))
	val, err := c.Get(ctx, "user", "u-1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u-1"}`, val)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "user", "u-1")
	assert.ErrorIs(t, err, ErrMiss, "entry must expire with its TTL")
}

func TestInvalidateExactKey(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user", "u-1", "a", time.Minute))
	require.NoError(t, c.Set(ctx, "user", "u-2", "b", time.Minute))

	require.NoError(t, c.Invalidate(ctx, "user", "u-1"))

	_, err := c.Get(ctx, "user", "u-1")
	assert.ErrorIs(t, err, ErrMiss)
	val, err := c.Get(ctx, "user", "u-2")
	require.NoError(t, err)
	assert.Equal(t, "b", val, "sibling keys survive exact invalidation")
}

func TestInvalidateWildcard(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user_email", "ana@example.com", "u-1", time.Minute))
	require.NoError(t, c.Set(ctx, "user_email", "bob@example.com", "u-2", time.Minute))
	require.NoError(t, c.Set(ctx, "user", "u-1", "a", time.Minute))

	require.NoError(t, c.Invalidate(ctx, "user_email", "*"))

	_, err := c.Get(ctx, "user_email", "ana@example.com")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "user_email", "bob@example.com")
	assert.ErrorIs(t, err, ErrMiss)
	val, err := c.Get(ctx, "user", "u-1")
	require.NoError(t, err)
	assert.Equal(t, "a", val, "wildcard is scoped to its namespace")
}

func TestInvalidateAbsentKeyIsNoop(t *testing.T) {
	c, _ := testCache(t)
	assert.NoError(t, c.Invalidate(context.Background(), "user", "nope"))
	assert.NoError(t, c.Invalidate(context.Background(), "user", "no*"))
}

func TestGetAfterServerGone(t *testing.T) {
	c, mr := testCache(t)
	mr.Close()
	_, err := c.Get(context.Background(), "user", "u-1")
	assert.ErrorIs(t, err, ErrMiss, "transport failure degrades to a miss")
}

func TestKeyShape(t *testing.T) {
	assert.Equal(t, "user:u-1", Key("user", "u-1"))
}
