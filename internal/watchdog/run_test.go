package watchdog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kebairia/velero-watchdog/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

// fakeCatalog records every mutating call in order.
type fakeCatalog struct {
	backups   []catalog.Backup
	listErr   error
	deleteErr map[string]error
	createErr map[string]error
	calls     []string
	created   int
}

func (f *fakeCatalog) List(_ context.Context) ([]catalog.Backup, error) {
	return f.backups, f.listErr
}

func (f *fakeCatalog) Get(_ context.Context, name string) (catalog.Backup, error) {
	for _, b := range f.backups {
		if b.Name == name {
			return b, nil
		}
	}
	return catalog.Backup{}, catalog.ErrNotFound
}

func (f *fakeCatalog) Delete(_ context.Context, name string) error {
	f.calls = append(f.calls, "delete "+name)
	if err, ok := f.deleteErr[name]; ok {
		return err
	}
	return nil
}

func (f *fakeCatalog) CreateFromSchedule(_ context.Context, schedule string) (string, error) {
	f.calls = append(f.calls, "create "+schedule)
	if err, ok := f.createErr[schedule]; ok {
		return "", err
	}
	f.created++
	return fmt.Sprintf("%s-replacement-%d", schedule, f.created), nil
}

func newWatchdog(cat Catalog, opts ...Option) *Watchdog {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(cat, opts...)
}

// The three-record scenario: only the in-window scheduled failure is
// remediated, the healthy record is skipped, the old on-demand failure is
// outside the window.
func TestRun_Scenario(t *testing.T) {
	cat := &fakeCatalog{backups: []catalog.Backup{
		{Name: "a", ScheduleName: "daily", Phase: "Failed", StartTimestamp: testNow.Add(-2 * time.Hour)},
		{Name: "b", ScheduleName: "daily", Phase: "Completed", StartTimestamp: testNow.Add(-1 * time.Hour)},
		{Name: "c", Phase: "Failed", StartTimestamp: testNow.Add(-30 * time.Hour)},
	}}

	summary, err := newWatchdog(cat).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"delete a", "create daily"}, cat.calls)
	assert.Equal(t, RunSummary{Seen: 3, Failed: 1, Remediated: 1, Skipped: 2}, summary)
}

func TestRun_DeleteThenCreateInOrder(t *testing.T) {
	cat := &fakeCatalog{backups: []catalog.Backup{
		{Name: "daily-1", ScheduleName: "daily", Phase: "Failed", StartTimestamp: testNow.Add(-time.Hour)},
	}}

	_, err := newWatchdog(cat).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"delete daily-1", "create daily"}, cat.calls)
}

func TestRun_KeepFailedSkipsDelete(t *testing.T) {
	cat := &fakeCatalog{backups: []catalog.Backup{
		{Name: "daily-1", ScheduleName: "daily", Phase: "Failed", StartTimestamp: testNow.Add(-time.Hour)},
	}}

	summary, err := newWatchdog(cat, WithKeepFailed(true)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"create daily"}, cat.calls)
	assert.Equal(t, 1, summary.Remediated)
}

func TestRun_DryRunPerformsNoMutatingCalls(t *testing.T) {
	cat := &fakeCatalog{backups: []catalog.Backup{
		{Name: "daily-1", ScheduleName: "daily", Phase: "Failed", StartTimestamp: testNow.Add(-time.Hour)},
		{Name: "weekly-1", ScheduleName: "weekly", Phase: "PartiallyFailed", StartTimestamp: testNow.Add(-2 * time.Hour)},
	}}

	summary, err := newWatchdog(cat, WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, cat.calls)
	assert.Zero(t, summary.Remediated)
	assert.Zero(t, summary.Errors)
	// planning is identical to a real run: both records were candidates
	assert.Equal(t, 2, summary.Failed)
}

func TestRun_OnDemandFailureOnlyReported(t *testing.T) {
	cat := &fakeCatalog{backups: []catalog.Backup{
		{Name: "manual-1", Phase: "Failed", StartTimestamp: testNow.Add(-time.Hour)},
	}}

	summary, err := newWatchdog(cat).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, cat.calls)
	assert.Equal(t, RunSummary{Seen: 1, Failed: 1, Skipped: 1}, summary)
}

func TestRun_DeleteNotFoundProceedsToCreate(t *testing.T) {
	cat := &fakeCatalog{
		backups: []catalog.Backup{
			{Name: "daily-1", ScheduleName: "daily", Phase: "Failed", StartTimestamp: testNow.Add(-time.Hour)},
		},
		deleteErr: map[string]error{"daily-1": catalog.ErrNotFound},
	}

	summary, err := newWatchdog(cat).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"delete daily-1", "create daily"}, cat.calls)
	assert.Equal(t, 1, summary.Remediated)
	assert.Zero(t, summary.Errors)
}

func TestRun_CreateFailureDoesNotBlockOthers(t *testing.T) {
	cat := &fakeCatalog{
		backups: []catalog.Backup{
			{Name: "bad-1", ScheduleName: "bad", Phase: "Failed", StartTimestamp: testNow.Add(-3 * time.Hour)},
			{Name: "good-1", ScheduleName: "good", Phase: "Failed", StartTimestamp: testNow.Add(-time.Hour)},
		},
		createErr: map[string]error{"bad": errors.New("schedule template invalid")},
	}

	summary, err := newWatchdog(cat).Run(context.Background())
	require.NoError(t, err, "per-record errors must not fail the run")

	assert.Equal(t, []string{"delete bad-1", "create bad", "delete good-1", "create good"}, cat.calls)
	assert.Equal(t, 1, summary.Remediated)
	assert.Equal(t, 1, summary.Errors)
}

func TestRun_CatalogUnavailableIsFatal(t *testing.T) {
	cat := &fakeCatalog{
		listErr: fmt.Errorf("%w: connection refused", catalog.ErrCatalogUnavailable),
	}

	_, err := newWatchdog(cat).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.Empty(t, cat.calls)
}

func TestRun_MalformedRecordsSkipped(t *testing.T) {
	cat := &fakeCatalog{backups: []catalog.Backup{
		{Name: "no-timestamp", ScheduleName: "daily", Phase: "Failed"},
	}}

	summary, err := newWatchdog(cat).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, cat.calls)
	assert.Equal(t, RunSummary{Seen: 1, Skipped: 1}, summary)
}
