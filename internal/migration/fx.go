package migration

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/repository"
	"github.com/smallbiznis/invoicebuilder/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Apply brings the schema up to date. Postgres runs the versioned SQL
// migrations; the other dialects use gorm AutoMigrate.
func Apply(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("migration")

	if strings.EqualFold(strings.TrimSpace(cfg.DBType), db.TypePostgres) {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("driver", "postgres"))
		return nil
	}

	if err := repository.AutoMigrate(conn); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("schema migrated", zap.String("driver", cfg.DBType))
	return nil
}

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)
