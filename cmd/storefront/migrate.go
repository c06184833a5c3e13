package main

import (
	"github.com/handcraftedhaven/storefront/internal/catalog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the storefront and catalog migrations, then exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(credentials(cfg)); err != nil {
		return err
	}

	products, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer products.Close()

	if err := products.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		return err
	}

	logger.Info("migrations applied",
		zap.String("database", cfg.Database.MigrationsPath),
		zap.String("catalog", cfg.Catalog.DBPath))
	return nil
}
