package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed passes by status (ok, error).
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "velero_watchdog_runs_total",
			Help: "Total number of remediation passes",
		},
		[]string{"status"},
	)

	// BackupsSeen counts backup records inspected across all passes.
	BackupsSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velero_watchdog_backups_seen_total",
			Help: "Total number of backup records inspected",
		},
	)

	// FailedBackups counts in-window failed backups detected.
	FailedBackups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velero_watchdog_failed_backups_total",
			Help: "Total number of failed backups detected within the window",
		},
	)

	// Remediations counts replacement backups requested.
	Remediations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velero_watchdog_remediations_total",
			Help: "Total number of replacement backups requested",
		},
	)

	// RemediationErrors counts per-record remediation failures.
	RemediationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velero_watchdog_remediation_errors_total",
			Help: "Total number of failed remediation attempts",
		},
	)

	// LastRunTimestamp is the unix time of the last completed pass.
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "velero_watchdog_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed pass",
		},
	)
)
