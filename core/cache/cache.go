package cache

import (
	"context"
	"time"

	"booking-insights/core/config"
	"booking-insights/core/logger"

	"github.com/redis/go-redis/v9"
)

// Cache is the small amount of shared state the service keeps outside the
// database: short-lived locks and JSON values with a TTL.
type Cache interface {
	// Lock blocks until key is held or ctx is done. The returned func releases it
	// and is safe to call more than once.
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// GetJSON decodes the value into dest and reports whether the key existed.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a Redis backed cache when an address is configured, otherwise an
// in-process one. The in-process cache only coordinates a single replica, and
// token sets stashed in it do not survive a restart; refreshes reports whether
// OAuth refreshes can run so that limit is logged.
func New(ctx context.Context, cfg config.RedisConfig, refreshes bool, log *logger.Logger) (Cache, error) {
	log = logger.OrDefault(log)
	if cfg.Addr == "" {
		if refreshes {
			log.Warn("Cache:New:Memory:VolatileRecovery",
				"hint", "set REDIS_ADDR so refreshed tokens that fail to persist survive a restart")
		} else {
			log.Info("Cache:New:Memory")
		}
		return NewMemory(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Error("Cache:New:Ping:Error", "addr", cfg.Addr, "error", err)
		return nil, err
	}
	log.Info("Cache:New:Redis", "addr", cfg.Addr, "db", cfg.DB)
	return NewRedis(client, cfg.KeyPrefix), nil
}
