package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/config"
	"github.com/leadstack/crm/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if cfg.EnsureDefaultAdmin {
			return seed.EnsureDefaultOrgAndAdmin(conn, cfg.DefaultOrgName, cfg.BootstrapEmail, cfg.BootstrapPassword)
		}
		return seed.EnsureDefaultOrg(conn, cfg.DefaultOrgName)
	}),
)
