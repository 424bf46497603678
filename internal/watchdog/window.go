package watchdog

import (
	"time"

	"github.com/kebairia/velero-watchdog/internal/catalog"
)

// FilterWindow returns the records whose start timestamp falls within the
// trailing window ending at now. The boundary is inclusive: a record started
// exactly at now-window is kept. Records with no start timestamp are
// malformed; they are excluded and counted, never treated as failed.
func FilterWindow(records []catalog.Backup, now time.Time, window time.Duration) (in []catalog.Backup, malformed int) {
	cutoff := now.Add(-window)
	for _, record := range records {
		if record.StartTimestamp.IsZero() {
			malformed++
			continue
		}
		if !record.StartTimestamp.Before(cutoff) {
			in = append(in, record)
		}
	}
	return in, malformed
}
