package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/kebairia/velero-watchdog/internal/logger"
	"github.com/kebairia/velero-watchdog/internal/metrics"
	"github.com/kebairia/velero-watchdog/internal/watchdog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run remediation passes on a cron schedule",
	Long: `watch keeps the process alive and performs a remediation pass on the
configured cron schedule, for clusters without an external job scheduler.
A pass still running when the next tick fires is not run twice; the tick is
skipped so at most one pass is active at a time. Prometheus metrics are
served on the configured address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Global()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		wd, err := newWatchdog(ctx, cfg)
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: cfg.Watch.MetricsAddress, Handler: mux}
		go func() {
			log.Info("serving metrics", "address", cfg.Watch.MetricsAddress)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err.Error())
			}
		}()

		scheduler := cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		))
		_, err = scheduler.AddFunc(cfg.Watch.Schedule, func() {
			pass(ctx, wd, log)
		})
		if err != nil {
			return fmt.Errorf("invalid watch schedule %q: %w", cfg.Watch.Schedule, err)
		}

		log.Info("watch started", "schedule", cfg.Watch.Schedule, "window", cfg.TimeWindow.String())
		scheduler.Start()

		<-ctx.Done()
		log.Info("shutting down")
		<-scheduler.Stop().Done()
		return server.Shutdown(context.Background())
	},
}

// pass runs one remediation pass and records its outcome in the metrics.
// A failed pass is only logged; the next tick retries, matching the
// external-scheduler contract.
func pass(ctx context.Context, wd *watchdog.Watchdog, log logger.Logger) {
	summary, err := wd.Run(ctx)

	metrics.BackupsSeen.Add(float64(summary.Seen))
	metrics.FailedBackups.Add(float64(summary.Failed))
	metrics.Remediations.Add(float64(summary.Remediated))
	metrics.RemediationErrors.Add(float64(summary.Errors))
	metrics.LastRunTimestamp.SetToCurrentTime()

	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		log.Error("pass failed", "error", err.Error())
		return
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	log.Info("pass complete", "summary", summary.String(), "dry_run", dryRun)
}
