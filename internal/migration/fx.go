package migration

import (
	"github.com/ledgerline/payflow/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(run),
)

func run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		// The embedded migrations are written in postgres SQL. Other
		// deployments must manage the schema out of band.
		log.Warn("skipping migrations for unsupported database type",
			zap.String("db_type", cfg.DBType),
		)
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
