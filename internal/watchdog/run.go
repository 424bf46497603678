package watchdog

import (
	"context"
	"fmt"
	"time"

	"github.com/kebairia/velero-watchdog/internal/logger"
)

// RunSummary is the sole observable artifact of one pass. It is surfaced
// through process output and the exit status, never persisted.
type RunSummary struct {
	// Seen is the total number of records in the catalog snapshot.
	Seen int
	// Failed is the number of in-window records classified as failed.
	Failed int
	// Remediated is the number of replacement backups actually requested.
	Remediated int
	// Skipped counts everything not remediated and not errored: records
	// outside the window, malformed records, healthy records, on-demand
	// failures, and dry-run candidates.
	Skipped int
	// Errors is the number of records whose remediation failed.
	Errors int
}

func (s RunSummary) String() string {
	return fmt.Sprintf("seen=%d failed=%d remediated=%d skipped=%d errors=%d",
		s.Seen, s.Failed, s.Remediated, s.Skipped, s.Errors)
}

// Watchdog drives one remediation pass: fetch, filter, classify, plan,
// execute, summarize. It is single-threaded and holds no locks; at most one
// concurrent invocation cluster-wide is an external precondition.
type Watchdog struct {
	cat        Catalog
	window     time.Duration
	dryRun     bool
	keepFailed bool
	log        logger.Logger
	now        func() time.Time
}

// Option overrides a default setting on the Watchdog.
type Option func(*Watchdog)

// WithWindow sets the trailing time window for failed-backup detection.
func WithWindow(window time.Duration) Option {
	return func(w *Watchdog) {
		if window > 0 {
			w.window = window
		}
	}
}

// WithDryRun makes the pass report intended actions without performing any
// mutating catalog call.
func WithDryRun(dryRun bool) Option {
	return func(w *Watchdog) {
		w.dryRun = dryRun
	}
}

// WithKeepFailed leaves failed records in place for inspection instead of
// deleting them before recreation.
func WithKeepFailed(keepFailed bool) Option {
	return func(w *Watchdog) {
		w.keepFailed = keepFailed
	}
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Watchdog) {
		if log != nil {
			w.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(w *Watchdog) {
		if now != nil {
			w.now = now
		}
	}
}

// New returns a Watchdog over the given catalog.
func New(cat Catalog, opts ...Option) *Watchdog {
	w := &Watchdog{
		cat:    cat,
		window: 24 * time.Hour,
		log:    logger.Global(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs one pass and returns its summary. The returned error is
// non-nil only for unrecoverable conditions (catalog unavailable);
// per-record remediation failures are accumulated into the summary instead.
func (w *Watchdog) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	records, err := w.cat.List(ctx)
	if err != nil {
		return summary, err
	}
	summary.Seen = len(records)

	inWindow, malformed := FilterWindow(records, w.now(), w.window)
	if malformed > 0 {
		w.log.Warn("records without start timestamp skipped", "count", malformed)
	}

	plans := PlanRemediations(inWindow, w.keepFailed)
	summary.Failed = len(plans)
	summary.Skipped = summary.Seen - summary.Failed

	if summary.Failed == 0 {
		w.log.Info("no failed backups in window", "window", w.window.String())
		return summary, nil
	}

	for _, plan := range plans {
		w.log.Info("found failed backup",
			"backup", plan.Backup.Name,
			"schedule", plan.Backup.ScheduleName,
			"outcome", plan.Outcome.String(),
			"action", plan.Action.String(),
		)
	}

	exec := &executor{cat: w.cat, dryRun: w.dryRun, log: w.log}
	for _, plan := range plans {
		result := exec.execute(ctx, plan)
		switch {
		case result.Err != nil:
			summary.Errors++
		case result.Remediated:
			summary.Remediated++
		default:
			summary.Skipped++
		}
	}

	return summary, nil
}
