package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kebairia/velero-watchdog/internal/kube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	backups []kube.BackupObject
	listErr error
	delErr  error
	deleted []string
}

func (f *fakeAPI) ListBackups(_ context.Context, _ string) ([]kube.BackupObject, error) {
	return f.backups, f.listErr
}

func (f *fakeAPI) GetBackup(_ context.Context, _, name string) (*kube.BackupObject, error) {
	for i := range f.backups {
		if f.backups[i].Metadata.Name == name {
			return &f.backups[i], nil
		}
	}
	return nil, kube.ErrNotFound
}

func (f *fakeAPI) DeleteBackup(_ context.Context, _, name string) error {
	f.deleted = append(f.deleted, name)
	return f.delErr
}

func TestList_ConvertsObjects(t *testing.T) {
	started := time.Date(2026, 8, 28, 2, 0, 5, 0, time.UTC)
	api := &fakeAPI{backups: []kube.BackupObject{
		{
			Metadata: kube.ObjectMeta{
				Name:            "daily-1",
				OwnerReferences: []kube.OwnerReference{{Kind: "Schedule", Name: "daily"}},
			},
			Status: kube.BackupStatus{Phase: "Failed", StartTimestamp: &started},
		},
		{
			Metadata: kube.ObjectMeta{Name: "manual-1"},
			Status:   kube.BackupStatus{Phase: "Completed"},
		},
	}}

	backups, err := NewClient(api).List(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)

	assert.Equal(t, "daily-1", backups[0].Name)
	assert.Equal(t, "daily", backups[0].ScheduleName)
	assert.Equal(t, started, backups[0].StartTimestamp)
	assert.False(t, backups[0].OnDemand())

	assert.True(t, backups[1].OnDemand())
	assert.True(t, backups[1].StartTimestamp.IsZero())
}

func TestList_WrapsUnreachableAPI(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("connection refused")}

	_, err := NewClient(api).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestDelete_MapsNotFound(t *testing.T) {
	api := &fakeAPI{delErr: kube.ErrNotFound}

	err := NewClient(api).Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFromSchedule_ParsesBackupName(t *testing.T) {
	var gotArgs []string
	client := NewClient(&fakeAPI{}, WithNamespace("backup-system"), WithBinary("/opt/velero"))
	client.run = func(_ context.Context, name string, args ...string) (string, error) {
		gotArgs = append([]string{name}, args...)
		return `Backup request "daily-20260829103000" submitted successfully.
Run velero backup describe daily-20260829103000 for more details.`, nil
	}

	name, err := client.CreateFromSchedule(context.Background(), "daily")
	require.NoError(t, err)
	assert.Equal(t, "daily-20260829103000", name)
	assert.Equal(t,
		[]string{"/opt/velero", "backup", "create", "--from-schedule", "daily", "--namespace", "backup-system"},
		gotArgs)
}

func TestCreateFromSchedule_RejectsUnparseableOutput(t *testing.T) {
	client := NewClient(&fakeAPI{})
	client.run = func(_ context.Context, _ string, _ ...string) (string, error) {
		return "An error occurred: schedule not found", nil
	}

	_, err := client.CreateFromSchedule(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no backup name"))
}

func TestCreateFromSchedule_PropagatesCommandFailure(t *testing.T) {
	client := NewClient(&fakeAPI{})
	client.run = func(_ context.Context, _ string, _ ...string) (string, error) {
		return "", errors.New("exit status 1")
	}

	_, err := client.CreateFromSchedule(context.Background(), "daily")
	require.Error(t, err)
}
