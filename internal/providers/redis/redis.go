package redis

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/config"
)

var Module = fx.Module("providers.redis",
	fx.Provide(NewFromConfig),
)

// NewFromConfig returns nil when no Redis address is configured; consumers
// (rate limiting, report cache) treat a nil client as "feature off".
func NewFromConfig(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
