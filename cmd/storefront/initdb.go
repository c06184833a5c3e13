package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/handcraftedhaven/storefront/internal/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var strictInit bool

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Reconcile the users table with the current account schema",
	Long: `Brings an existing users table, possibly in a legacy shape, up to the
current schema and ensures the seed account exists.

Every step runs and is reported as applied, skipped or failed. A failed step
does not stop the ones after it. The command exits non-zero when the database
cannot be reached, or with --strict when any step failed.`,
	RunE: runInitDB,
}

func init() {
	initDBCmd.Flags().BoolVar(&strictInit, "strict", false, "exit non-zero when any step fails")
}

func runInitDB(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := schema.NewMigrator(repo.DB(), logger).Reconcile(ctx)
	if err != nil {
		return err
	}

	printReport(cmd, report)

	if !report.OK() {
		logger.Warn("users table reconciled with failures", zap.Int("failed", len(report.Failed())))
		if strictInit {
			return fmt.Errorf("%d schema steps failed", len(report.Failed()))
		}
		return nil
	}
	logger.Info("users table reconciled")
	return nil
}

func printReport(cmd *cobra.Command, report *schema.Report) {
	out := cmd.OutOrStdout()
	for _, res := range report.Results {
		line := fmt.Sprintf("%2d  %-8s %s", res.Version, res.Outcome, res.Name)
		if res.Err != nil {
			line += ": " + res.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
}
