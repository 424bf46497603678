package kube

import "time"

// The velero.io/v1 Backup custom resource, reduced to the fields the
// watchdog reads. Everything else in the object is ignored on decode.

// BackupList is the list envelope returned by the API server.
type BackupList struct {
	Items []BackupObject `json:"items"`
}

// BackupObject is a single velero.io/v1 Backup.
type BackupObject struct {
	Metadata ObjectMeta   `json:"metadata"`
	Status   BackupStatus `json:"status"`
}

// ObjectMeta carries the object identity and ownership.
type ObjectMeta struct {
	Name            string           `json:"name"`
	Namespace       string           `json:"namespace,omitempty"`
	OwnerReferences []OwnerReference `json:"ownerReferences,omitempty"`
}

// OwnerReference links a Backup to the Schedule that produced it.
type OwnerReference struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// BackupStatus is the reported state of a backup attempt. StartTimestamp is
// nil for backups the server never started.
type BackupStatus struct {
	Phase          string     `json:"phase,omitempty"`
	StartTimestamp *time.Time `json:"startTimestamp,omitempty"`
	FailureReason  string     `json:"failureReason,omitempty"`
}

// ScheduleName returns the owning Schedule's name, or "" for on-demand
// backups.
func (b *BackupObject) ScheduleName() string {
	for _, ref := range b.Metadata.OwnerReferences {
		if ref.Kind == "Schedule" {
			return ref.Name
		}
	}
	return ""
}
