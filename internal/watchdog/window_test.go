package watchdog

import (
	"testing"
	"time"

	"github.com/kebairia/velero-watchdog/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterWindow_BoundaryInclusive(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	records := []catalog.Backup{
		{Name: "exactly-on-boundary", StartTimestamp: now.Add(-window)},
		{Name: "just-outside", StartTimestamp: now.Add(-window - time.Second)},
		{Name: "recent", StartTimestamp: now.Add(-time.Hour)},
		{Name: "ancient", StartTimestamp: now.Add(-30 * time.Hour)},
	}

	in, malformed := FilterWindow(records, now, window)
	require.Len(t, in, 2)
	assert.Equal(t, "exactly-on-boundary", in[0].Name)
	assert.Equal(t, "recent", in[1].Name)
	assert.Zero(t, malformed)
}

func TestFilterWindow_MalformedExcludedNotFailed(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	records := []catalog.Backup{
		{Name: "no-timestamp", Phase: "Failed"},
		{Name: "ok", StartTimestamp: now.Add(-time.Hour), Phase: "Failed"},
	}

	in, malformed := FilterWindow(records, now, 24*time.Hour)
	require.Len(t, in, 1)
	assert.Equal(t, "ok", in[0].Name)
	assert.Equal(t, 1, malformed)
}

func TestFilterWindow_Empty(t *testing.T) {
	in, malformed := FilterWindow(nil, time.Now(), 24*time.Hour)
	assert.Empty(t, in)
	assert.Zero(t, malformed)
}
