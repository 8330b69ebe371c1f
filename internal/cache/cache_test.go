package cache

import (
	"context"
	"testing"
	"time"

	"equiprent-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleKey() Key {
	return Key{
		EquipmentID: "eq-1",
		Interval:    domain.MustInterval(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func TestKeyString(t *testing.T) {
	k := sampleKey()
	assert.Equal(t, "eq-1:1781049600000000000:1781481600000000000:", k.String())
	k.ExcludeBookingID = "bk-1"
	assert.Equal(t, "eq-1:1781049600000000000:1781481600000000000:bk-1", k.String())
}

func TestKeyString_SubSecond(t *testing.T) {
	a := sampleKey()
	b := sampleKey()
	b.Interval.Start = b.Interval.Start.Add(250 * time.Millisecond)
	assert.NotEqual(t, a.String(), b.String())
}

func TestNop(t *testing.T) {
	var c VerdictCache = Nop{}
	c.Set(context.Background(), sampleKey(), 0, &domain.AvailabilityVerdict{IsAvailable: true})
	_, gen, ok := c.Get(context.Background(), sampleKey())
	assert.False(t, ok)
	assert.Equal(t, NoGeneration, gen)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestRedisUnreachableIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewRedis(rdb, time.Minute)
	ctx := context.Background()

	_, gen, ok := c.Get(ctx, sampleKey())
	assert.False(t, ok)
	assert.Equal(t, NoGeneration, gen)
	c.Set(ctx, sampleKey(), gen, &domain.AvailabilityVerdict{IsAvailable: true})
	c.Invalidate(ctx, "eq-1")
	assert.Error(t, c.Ping(ctx))
}

func newMiniredisCache(t *testing.T) (VerdictCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, time.Minute), mr
}

func TestRedisRoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	_, gen, ok := c.Get(ctx, sampleKey())
	require.False(t, ok)
	assert.Equal(t, Generation(0), gen)

	c.Set(ctx, sampleKey(), gen, &domain.AvailabilityVerdict{EquipmentID: "eq-1", IsAvailable: true})
	v, gen, ok := c.Get(ctx, sampleKey())
	require.True(t, ok)
	assert.True(t, v.IsAvailable)
	assert.Equal(t, Generation(0), gen)

	c.Invalidate(ctx, "eq-1")
	_, gen, ok = c.Get(ctx, sampleKey())
	assert.False(t, ok)
	assert.Equal(t, Generation(1), gen)
	assert.Greater(t, mr.TTL(generationKey("eq-1")), time.Duration(0))
}

func TestRedisInvalidateBetweenGetAndSet(t *testing.T) {
	c, _ := newMiniredisCache(t)
	ctx := context.Background()

	_, gen, ok := c.Get(ctx, sampleKey())
	require.False(t, ok)

	// A write lands while the verdict is being computed from the store.
	c.Invalidate(ctx, "eq-1")
	c.Set(ctx, sampleKey(), gen, &domain.AvailabilityVerdict{EquipmentID: "eq-1", IsAvailable: true})

	v, _, ok := c.Get(ctx, sampleKey())
	assert.False(t, ok, "verdict computed before the write must not be served")
	assert.Nil(t, v)
}

func TestRedisInvalidateIsPerEquipment(t *testing.T) {
	c, _ := newMiniredisCache(t)
	ctx := context.Background()
	other := sampleKey()
	other.EquipmentID = "eq-2"

	for _, k := range []Key{sampleKey(), other} {
		_, gen, _ := c.Get(ctx, k)
		c.Set(ctx, k, gen, &domain.AvailabilityVerdict{EquipmentID: k.EquipmentID, IsAvailable: true})
	}
	c.Invalidate(ctx, "eq-1")

	_, _, ok := c.Get(ctx, sampleKey())
	assert.False(t, ok)
	_, _, ok = c.Get(ctx, other)
	assert.True(t, ok)
}
