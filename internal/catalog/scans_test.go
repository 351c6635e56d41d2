package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

func TestRecordScan_RoundTrip(t *testing.T) {
	c := openTestCatalog(t)

	scan := &SequenceScan{
		Dir:          "/data/capture/session1",
		FrameCount:   240,
		FirstFrame:   intPtr(1),
		LastFrame:    intPtr(240),
		SkippedFiles: 2,
	}
	require.NoError(t, c.RecordScan(scan))
	assert.NotEmpty(t, scan.ScanID, "RecordScan should assign a scan ID")
	assert.False(t, scan.CreatedAt.IsZero())

	scans, err := c.ListScans(10)
	require.NoError(t, err)
	require.Len(t, scans, 1)

	got := scans[0]
	assert.Equal(t, scan.ScanID, got.ScanID)
	assert.Equal(t, scan.Dir, got.Dir)
	assert.Equal(t, 240, got.FrameCount)
	require.NotNil(t, got.FirstFrame)
	require.NotNil(t, got.LastFrame)
	assert.Equal(t, 1, *got.FirstFrame)
	assert.Equal(t, 240, *got.LastFrame)
	assert.Equal(t, 2, got.SkippedFiles)
}

func TestRecordScan_EmptyDirectory(t *testing.T) {
	c := openTestCatalog(t)

	scan := &SequenceScan{Dir: "/data/capture/empty", FrameCount: 0}
	require.NoError(t, c.RecordScan(scan))

	got, err := c.LatestScan("/data/capture/empty")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.FrameCount)
	assert.Nil(t, got.FirstFrame)
	assert.Nil(t, got.LastFrame)
}

func TestLatestScan_PicksNewest(t *testing.T) {
	c := openTestCatalog(t)

	first := &SequenceScan{Dir: "/data/capture/session2", FrameCount: 10}
	require.NoError(t, c.RecordScan(first))

	second := &SequenceScan{Dir: "/data/capture/session2", FrameCount: 20}
	require.NoError(t, c.RecordScan(second))

	// Same created_at second is possible; the scan_id tiebreak keeps the
	// result deterministic either way.
	got, err := c.LatestScan("/data/capture/session2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/data/capture/session2", got.Dir)
}

func TestLatestScan_UnknownDir(t *testing.T) {
	c := openTestCatalog(t)

	got, err := c.LatestScan("/never/scanned")
	require.NoError(t, err)
	assert.Nil(t, got)
}
