// Package app builds the object graph shared by the server, the cron runner
// and the admin CLI from one loaded Config.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"equiprent-backend/internal/cache"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository/postgres"
	"equiprent-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config *config.Config
	DB     *sql.DB
	Store  *postgres.Store
	// Redis is nil when redis.addr is empty.
	Redis *redis.Client
	Cache cache.VerdictCache

	Availability service.AvailabilityService
	Blocks       service.BlockService
	Pricing      service.PricingService
	Bookings     service.BookingService
}

// New opens the database, optionally migrates it, connects the verdict cache
// and wires the services. Callers must Close the result.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database schema applied")
	}

	a := &App{
		Config: cfg,
		DB:     db,
		Store:  postgres.NewStore(db, cfg.Availability.StoreTimeout),
		Cache:  cache.Nop{},
	}

	if cfg.Redis.Addr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.Cache = cache.NewRedis(a.Redis, cfg.Availability.CacheTTL)
		if err := a.Cache.Ping(ctx); err != nil {
			// Cache errors degrade to misses.
			logger.Warn("Redis unreachable at startup, verdict cache will miss", "addr", cfg.Redis.Addr, "error", err)
		} else {
			logger.Info("Verdict cache connected", "addr", cfg.Redis.Addr, "ttl", cfg.Availability.CacheTTL)
		}
	} else {
		logger.Info("Redis not configured, verdict cache disabled")
	}

	repos := a.Store.Repositories()
	a.Availability = service.NewAvailabilityService(repos, a.Cache, cfg.Availability, nil)
	a.Blocks = service.NewBlockService(repos, a.Cache, cfg.Availability, nil)
	a.Pricing = service.NewPricingService(repos, cfg.Pricing, nil)
	a.Bookings = service.NewBookingService(repos, a.Pricing, a.Cache, cfg.Availability, nil)
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}
