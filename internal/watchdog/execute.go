package watchdog

import (
	"context"

	"github.com/kebairia/velero-watchdog/internal/catalog"
	"github.com/kebairia/velero-watchdog/internal/logger"
)

// Catalog is the slice of the backup catalog client the engine uses.
type Catalog interface {
	List(ctx context.Context) ([]catalog.Backup, error)
	Get(ctx context.Context, name string) (catalog.Backup, error)
	Delete(ctx context.Context, name string) error
	CreateFromSchedule(ctx context.Context, schedule string) (string, error)
}

// Result records what happened to one planned remediation.
type Result struct {
	Plan Plan
	// Created is the name of the replacement backup, "" when none was made.
	Created string
	// Remediated is true only when a replacement backup was actually
	// requested; always false in dry-run mode.
	Remediated bool
	// Err holds a per-record remediation failure. Never fatal to the run.
	Err error
}

// executor carries out remediation plans against the catalog. In dry-run
// mode it performs no mutating calls and only reports what would happen.
type executor struct {
	cat    Catalog
	dryRun bool
	log    logger.Logger
}

// execute performs one plan. A failed delete means the record is already
// gone and is not fatal; execution proceeds to the create. A failed create
// is recorded on the Result so the caller can keep processing other records.
func (e *executor) execute(ctx context.Context, plan Plan) Result {
	result := Result{Plan: plan}
	backup := plan.Backup

	if plan.Action == ActionReportOnly {
		e.log.Warn("on-demand backup failed, not retrying automatically",
			"backup", backup.Name,
			"outcome", plan.Outcome.String(),
			"reason", backup.FailureReason,
		)
		return result
	}

	if e.dryRun {
		if plan.Action == ActionRecreate {
			e.log.Info("dry-run: would delete failed backup", "backup", backup.Name)
		}
		e.log.Info("dry-run: would create backup from schedule",
			"backup", backup.Name,
			"schedule", backup.ScheduleName,
		)
		return result
	}

	if plan.Action == ActionRecreate {
		if err := e.cat.Delete(ctx, backup.Name); err != nil {
			// Already gone or delete refused: either way the failed record
			// is no longer ours to clean up, the replacement still matters.
			e.log.Warn("could not delete failed backup, continuing",
				"backup", backup.Name,
				"error", err.Error(),
			)
		} else {
			e.log.Info("deleted failed backup", "backup", backup.Name)
		}
	}

	created, err := e.cat.CreateFromSchedule(ctx, backup.ScheduleName)
	if err != nil {
		result.Err = err
		e.log.Error("failed to create replacement backup",
			"backup", backup.Name,
			"schedule", backup.ScheduleName,
			"error", err.Error(),
		)
		return result
	}

	result.Created = created
	result.Remediated = true
	e.log.Info("created replacement backup",
		"backup", created,
		"schedule", backup.ScheduleName,
		"replaces", backup.Name,
	)

	if fresh, err := e.cat.Get(ctx, created); err == nil {
		e.log.Debug("replacement backup status", "backup", created, "phase", fresh.Phase)
	}

	return result
}
