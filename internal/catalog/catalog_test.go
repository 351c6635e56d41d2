package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestCatalog opens a fresh catalog in a temp directory.
func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := NewCatalog(path)
	require.NoError(t, err, "NewCatalog")
	t.Cleanup(func() { c.Close() })

	return c
}

func TestNewCatalog_AppliesPragmas(t *testing.T) {
	c := openTestCatalog(t)

	var journalMode string
	require.NoError(t, c.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, c.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, c.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous) // NORMAL

	var tempStore int
	require.NoError(t, c.QueryRow("PRAGMA temp_store").Scan(&tempStore))
	assert.Equal(t, 2, tempStore) // MEMORY
}

func TestNewCatalog_MigratesSchema(t *testing.T) {
	c := openTestCatalog(t)

	version, dirty, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	for _, table := range []string{"sequence_scans", "resample_runs"} {
		var exists bool
		err := c.QueryRow(`
			SELECT COUNT(*) > 0 FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist after migration", table)
	}
}

func TestNewCatalog_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c1, err := NewCatalog(path)
	require.NoError(t, err)

	scan := &SequenceScan{Dir: "/data/seq", FrameCount: 3}
	require.NoError(t, c1.RecordScan(scan))
	require.NoError(t, c1.Close())

	c2, err := NewCatalog(path)
	require.NoError(t, err)
	defer c2.Close()

	scans, err := c2.ListScans(10)
	require.NoError(t, err)
	assert.Len(t, scans, 1, "data should survive a reopen")
}

func TestGetDatabaseStats(t *testing.T) {
	c := openTestCatalog(t)

	require.NoError(t, c.RecordScan(&SequenceScan{Dir: "/data/seq", FrameCount: 12}))

	stats, err := c.GetDatabaseStats()
	require.NoError(t, err)

	assert.Greater(t, stats.TotalSizeMB, 0.0)

	byName := make(map[string]TableStats, len(stats.Tables))
	for _, table := range stats.Tables {
		byName[table.Name] = table
	}
	require.Contains(t, byName, "sequence_scans")
	require.Contains(t, byName, "resample_runs")
	assert.Equal(t, int64(1), byName["sequence_scans"].RowCount)
	assert.Equal(t, int64(0), byName["resample_runs"].RowCount)
}
