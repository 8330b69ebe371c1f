package http

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRateLimit builds a per-client-IP limiter from a formatted rate such as
// "10-M". Counters live in Redis when rdb is set so every replica shares them.
func NewRateLimit(rate string, rdb *redis.Client) (func(http.Handler) http.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	var store limiter.Store
	if rdb != nil {
		store, err = redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
			Prefix:   "equiprent:ratelimit:bookings",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          "equiprent:ratelimit:bookings",
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	mw := stdlib.NewMiddleware(limiter.New(store, r))
	return mw.Handler, nil
}
