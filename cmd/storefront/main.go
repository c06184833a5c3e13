package main

import (
	"fmt"
	"os"

	"github.com/handcraftedhaven/storefront/internal/config"
	"github.com/handcraftedhaven/storefront/internal/logging"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Handcrafted Haven marketplace storefront",
	Long: `storefront serves the Handcrafted Haven marketplace, the seller dashboard
and the buyer JSON API, and carries the one-shot database tooling.

Configuration comes from an optional YAML file (--config), .env.local or .env
in the working directory, and the process environment, in increasing precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, false)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, initDBCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and rebuilds the logger from its logging
// section. --verbose wins over the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, ".")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !verbose {
		l, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
		if err != nil {
			return nil, err
		}
		logger = l
		zap.ReplaceGlobals(logger)
	}
	return cfg, nil
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		URL:               cfg.Database.URL,
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		DBName:            cfg.Database.Name,
		MigrationsDirPath: cfg.Database.MigrationsPath,
	}
}

func openRepository(cfg *config.Config) (*repository.Repository, error) {
	queryTimeout, err := cfg.QueryTimeout()
	if err != nil {
		return nil, err
	}

	target := config.MaskedDatabaseURL(cfg.Database.URL)
	if target == "" {
		target = fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}
	logger.Info("connecting to database", zap.String("target", target))

	return repository.NewRepository(credentials(cfg), queryTimeout)
}
