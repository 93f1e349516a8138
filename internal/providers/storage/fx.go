package storage

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leadstack/crm/internal/config"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.StorageDir == "" {
		return NoOpProvider{}
	}
	provider, err := NewFilesystemProvider(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		log.Warn("storage directory unavailable, uploads disabled",
			zap.String("dir", cfg.StorageDir),
			zap.Error(err),
		)
		return NoOpProvider{}
	}
	return provider
}
