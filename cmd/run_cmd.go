package cmd

import (
	"github.com/kebairia/velero-watchdog/internal/logger"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Perform one remediation pass and exit",
	Long: `run performs a single pass: list recent backups, detect failed ones,
and recreate them from their schedules. Exit status is zero on a completed
pass, including one with per-record remediation errors; only an unreachable
backup catalog or a setup error exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Global()
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		wd, err := newWatchdog(ctx, cfg)
		if err != nil {
			return err
		}

		summary, err := wd.Run(ctx)
		if err != nil {
			return err
		}

		log.Info("pass complete", "summary", summary.String(), "dry_run", dryRun)
		return nil
	},
}
