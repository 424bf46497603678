package cmd

import (
	"os"

	"github.com/kebairia/velero-watchdog/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	namespace   string
	timeWindow  int
	dryRun      bool
	debug       bool
	keepBackups bool

	rootCmd = &cobra.Command{
		Use:   "velero-watchdog",
		Short: "Detects failed Velero backups and retriggers them",
		Long: `velero-watchdog inspects recently attempted Velero backups, finds the
ones that failed, and triggers a corrective re-run from the owning schedule
so operators do not have to notice and retry broken backup jobs by hand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logger.Init(debug)
			return err
		},
	}
)

// Execute runs the root command. Any unrecoverable error exits non-zero.
func Execute() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		logger.Global().Error("run aborted", "error", err.Error())
		logger.Cleanup()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "path to YAML config file")
	pf.StringVarP(&namespace, "namespace", "n", "", "namespace Velero runs in (default from config)")
	pf.IntVarP(&timeWindow, "time-window", "t", 0, "time window in hours to look for failed backups (default 24)")
	pf.BoolVarP(&dryRun, "dry-run", "d", false, "report intended actions without performing them")
	pf.BoolVarP(&debug, "debug", "e", false, "enable debug logging")
	pf.BoolVarP(&keepBackups, "dont-delete-backups", "o", false, "keep failed backups in place when recreating")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}
