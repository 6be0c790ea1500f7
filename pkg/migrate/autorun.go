package migrate

import (
	"context"
	"fmt"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

// Prepare readies the schema at boot. The SQLite development double is always
// built from the models; Postgres runs goose only in dev with AutoMigrate set.
func Prepare(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.IsSQLite() {
		return AutoMigrateModels(ctx, logg, client)
	}
	return MaybeRunDev(ctx, cfg, logg, client)
}

// AutoMigrateModels creates every table from the gorm models.
func AutoMigrateModels(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "schema created from models")
	}
	return nil
}

// MaybeRunDev applies the embedded migrations on boot in dev when the
// AutoMigrate flag is on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	source, err := Source("")
	if err != nil {
		return err
	}
	runner, err := NewRunner(sqlDB, source, logg)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "applying embedded migrations")
	return runner.Up(ctx)
}
