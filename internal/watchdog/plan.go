package watchdog

import (
	"sort"

	"github.com/kebairia/velero-watchdog/internal/catalog"
)

// Action is the decided remediation for one failed record.
type Action int

const (
	// ActionReportOnly logs the failure without touching the catalog.
	// On-demand backups are never recreated automatically; the operator
	// created them explicitly and must decide.
	ActionReportOnly Action = iota
	// ActionRecreate deletes the failed record, then creates a new backup
	// from its schedule. Deleting first avoids retention-count pressure and
	// keeps the stale failed record from counting as the schedule's latest.
	ActionRecreate
	// ActionRecreateWithoutDelete creates the replacement but leaves the
	// failed record in place for inspection.
	ActionRecreateWithoutDelete
)

var actionNames = map[Action]string{
	ActionReportOnly:            "report-only",
	ActionRecreate:              "recreate",
	ActionRecreateWithoutDelete: "recreate-without-delete",
}

func (a Action) String() string { return actionNames[a] }

// Plan pairs one failed record with its decided action. Plans are derived
// each run from the catalog's current state and never persisted.
type Plan struct {
	Backup  catalog.Backup
	Outcome Outcome
	Action  Action
}

// PlanRemediations decides an action for every remediable record in the
// window. keepFailed selects recreate-without-delete for schedule-owned
// records. Multiple failures of the same schedule are planned independently,
// oldest first, since each represents a distinct missed run.
func PlanRemediations(records []catalog.Backup, keepFailed bool) []Plan {
	var plans []Plan
	for _, record := range records {
		outcome := Classify(record.Phase)
		if !outcome.Remediable() {
			continue
		}

		action := ActionRecreate
		switch {
		case record.OnDemand():
			action = ActionReportOnly
		case keepFailed:
			action = ActionRecreateWithoutDelete
		}
		plans = append(plans, Plan{Backup: record, Outcome: outcome, Action: action})
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Backup.StartTimestamp.Before(plans[j].Backup.StartTimestamp)
	})
	return plans
}
