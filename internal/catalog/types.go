package catalog

import (
	"time"

	"github.com/kebairia/velero-watchdog/internal/kube"
)

// Backup is a read-only snapshot of one backup attempt, fetched fresh each
// pass and never cached across runs.
type Backup struct {
	Name string
	// ScheduleName is the owning Schedule, or "" for on-demand backups.
	ScheduleName string
	// StartTimestamp is zero when the server never started the backup.
	StartTimestamp time.Time
	// Phase is the raw status string as reported by the backing system.
	Phase         string
	FailureReason string
}

// OnDemand reports whether the backup was created outside of any schedule.
func (b Backup) OnDemand() bool { return b.ScheduleName == "" }

// fromObject converts the raw API object into the watchdog's snapshot type.
func fromObject(obj kube.BackupObject) Backup {
	b := Backup{
		Name:          obj.Metadata.Name,
		ScheduleName:  obj.ScheduleName(),
		Phase:         obj.Status.Phase,
		FailureReason: obj.Status.FailureReason,
	}
	if obj.Status.StartTimestamp != nil {
		b.StartTimestamp = *obj.Status.StartTimestamp
	}
	return b
}
