package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SequenceScan records one directory scan by the playback tools: how many
// frames were found and the frame number range they cover.
type SequenceScan struct {
	ScanID       string    `json:"scan_id"`
	Dir          string    `json:"dir"`
	FrameCount   int       `json:"frame_count"`
	FirstFrame   *int      `json:"first_frame"`
	LastFrame    *int      `json:"last_frame"`
	SkippedFiles int       `json:"skipped_files"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordScan inserts a new scan row. A missing ScanID is filled in with a
// fresh UUID; CreatedAt is set to the insert time.
func (c *Catalog) RecordScan(scan *SequenceScan) error {
	if scan.ScanID == "" {
		scan.ScanID = uuid.New().String()
	}
	now := time.Now()

	query := `
		INSERT INTO sequence_scans (
			scan_id, dir, frame_count, first_frame, last_frame,
			skipped_files, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.DB.Exec(
		query,
		scan.ScanID,
		scan.Dir,
		scan.FrameCount,
		scan.FirstFrame,
		scan.LastFrame,
		scan.SkippedFiles,
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	scan.CreatedAt = now
	return nil
}

// ListScans retrieves the most recent scans, newest first.
func (c *Catalog) ListScans(limit int) ([]SequenceScan, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			scan_id, dir, frame_count, first_frame, last_frame,
			skipped_files, created_at
		FROM sequence_scans
		ORDER BY created_at DESC, scan_id
		LIMIT ?
	`

	rows, err := c.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []SequenceScan
	for rows.Next() {
		var scan SequenceScan
		var createdAtUnix int64

		err := rows.Scan(
			&scan.ScanID,
			&scan.Dir,
			&scan.FrameCount,
			&scan.FirstFrame,
			&scan.LastFrame,
			&scan.SkippedFiles,
			&createdAtUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		scan.CreatedAt = time.Unix(createdAtUnix, 0)
		scans = append(scans, scan)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}

	return scans, nil
}

// LatestScan retrieves the most recent scan of dir, or nil when the
// directory has never been scanned.
func (c *Catalog) LatestScan(dir string) (*SequenceScan, error) {
	query := `
		SELECT
			scan_id, dir, frame_count, first_frame, last_frame,
			skipped_files, created_at
		FROM sequence_scans
		WHERE dir = ?
		ORDER BY created_at DESC, scan_id
		LIMIT 1
	`

	var scan SequenceScan
	var createdAtUnix int64

	err := c.DB.QueryRow(query, dir).Scan(
		&scan.ScanID,
		&scan.Dir,
		&scan.FrameCount,
		&scan.FirstFrame,
		&scan.LastFrame,
		&scan.SkippedFiles,
		&createdAtUnix,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}

	scan.CreatedAt = time.Unix(createdAtUnix, 0)
	return &scan, nil
}
