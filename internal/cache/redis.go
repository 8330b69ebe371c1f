package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "equiprent:availability"

// generationTTL outlives every verdict so a stale generation can never resurface.
const generationTTL = 24 * time.Hour

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis returns a cache that treats every Redis failure as a miss.
func NewRedis(rdb *redis.Client, ttl time.Duration) VerdictCache {
	return &redisCache{rdb: rdb, ttl: ttl}
}

func generationKey(equipmentID string) string {
	return keyPrefix + ":gen:" + equipmentID
}

func (c *redisCache) generation(ctx context.Context, equipmentID string) (Generation, error) {
	gen, err := c.rdb.Get(ctx, generationKey(equipmentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return NoGeneration, err
	}
	return Generation(gen), nil
}

func verdictKey(key Key, gen Generation) string {
	return keyPrefix + ":v:" + strconv.FormatInt(int64(gen), 10) + ":" + key.String()
}

func (c *redisCache) Get(ctx context.Context, key Key) (*domain.AvailabilityVerdict, Generation, bool) {
	logger.CacheCall("verdict.get", key.String())
	gen, err := c.generation(ctx, key.EquipmentID)
	if err != nil {
		logger.CacheResult("verdict.get", false, err)
		return nil, NoGeneration, false
	}
	raw, err := c.rdb.Get(ctx, verdictKey(key, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.CacheResult("verdict.get", false, nil)
		return nil, gen, false
	}
	if err != nil {
		logger.CacheResult("verdict.get", false, err)
		return nil, gen, false
	}
	var v domain.AvailabilityVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.CacheResult("verdict.get", false, err)
		return nil, gen, false
	}
	logger.CacheResult("verdict.get", true, nil)
	return &v, gen, true
}

// Set files v under gen, never the current generation. An Invalidate between
// Get and Set leaves the entry unreachable.
func (c *redisCache) Set(ctx context.Context, key Key, gen Generation, v *domain.AvailabilityVerdict) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err == nil {
		err = c.rdb.Set(ctx, verdictKey(key, gen), raw, c.ttl).Err()
	}
	if err != nil {
		logger.CacheResult("verdict.set", false, err, "key", key.String())
	}
}

func (c *redisCache) Invalidate(ctx context.Context, equipmentID string) {
	gk := generationKey(equipmentID)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, gk)
	pipe.Expire(ctx, gk, generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.CacheResult("verdict.invalidate", false, err, "equipment_id", equipmentID)
	}
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
