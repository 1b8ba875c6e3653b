package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/smaphregi/internal/models"
	"github.com/Cheertaboi/smaphregi/internal/session"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisSessionCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	c := NewRedisSessionCache(rdb, 30*time.Minute)

	s := session.New("en", "tok")
	s.Coupons = []models.Coupon{{ID: "c1", Barcode: "*", Method: models.DiscountPercentage, Rate: 5}}
	require.NoError(t, c.Save(ctx, s))

	assert.True(t, mr.Exists(SessionKeyPrefix+s.ID))
	assert.Equal(t, 30*time.Minute, mr.TTL(SessionKeyPrefix+s.ID))

	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Coupons, got.Coupons)
	assert.Equal(t, "en", got.Locale)
}

func TestRedisSessionCache_MissingAndExpired(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	c := NewRedisSessionCache(rdb, time.Minute)

	_, err := c.Get(ctx, "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)

	s := session.New("ja", "")
	require.NoError(t, c.Save(ctx, s))
	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisSessionCache_Delete(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	c := NewRedisSessionCache(rdb, time.Minute)

	s := session.New("ja", "")
	require.NoError(t, c.Save(ctx, s))
	require.NoError(t, c.Delete(ctx, s.ID))
	_, err := c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
