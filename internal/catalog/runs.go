package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Resample run lifecycle states.
const (
	RunStatusStarted   = "started"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ResampleRun records one source-to-destination resample, from StartRun
// through CompleteRun or FailRun. Runs launched together share a BatchID.
type ResampleRun struct {
	RunID          string     `json:"run_id"`
	BatchID        string     `json:"batch_id"`
	SourcePath     string     `json:"source_path"`
	DestPath       string     `json:"dest_path"`
	Ratio          float64    `json:"ratio"`
	Seed           *int64     `json:"seed"`
	SourceVertices int        `json:"source_vertices"`
	KeptVertices   int        `json:"kept_vertices"`
	Status         string     `json:"status"`
	Error          *string    `json:"error"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
}

// StartRun inserts a run in the started state. A missing RunID is filled in
// with a fresh UUID; StartedAt is set to the insert time.
func (c *Catalog) StartRun(run *ResampleRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	now := time.Now()

	query := `
		INSERT INTO resample_runs (
			run_id, batch_id, source_path, dest_path, ratio, seed, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.DB.Exec(
		query,
		run.RunID,
		run.BatchID,
		run.SourcePath,
		run.DestPath,
		run.Ratio,
		run.Seed,
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	run.Status = RunStatusStarted
	run.StartedAt = now
	return nil
}

// CompleteRun marks a started run completed and records its vertex counts.
func (c *Catalog) CompleteRun(runID string, sourceVertices, keptVertices int) error {
	query := `
		UPDATE resample_runs SET
			status = ?,
			source_vertices = ?,
			kept_vertices = ?,
			finished_at = ?
		WHERE run_id = ?
	`

	result, err := c.DB.Exec(query, RunStatusCompleted, sourceVertices, keptVertices, time.Now().Unix(), runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("run not found")
	}

	return nil
}

// FailRun marks a started run failed and records the failure message.
func (c *Catalog) FailRun(runID string, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}

	query := `
		UPDATE resample_runs SET
			status = ?,
			error = ?,
			finished_at = ?
		WHERE run_id = ?
	`

	result, err := c.DB.Exec(query, RunStatusFailed, message, time.Now().Unix(), runID)
	if err != nil {
		return fmt.Errorf("failed to fail run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("run not found")
	}

	return nil
}

// GetRun retrieves a run by ID.
func (c *Catalog) GetRun(runID string) (*ResampleRun, error) {
	query := `
		SELECT
			run_id, batch_id, source_path, dest_path, ratio, seed,
			source_vertices, kept_vertices, status, error,
			started_at, finished_at
		FROM resample_runs
		WHERE run_id = ?
	`

	run, err := scanRun(c.DB.QueryRow(query, runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves runs newest first. A non-empty batchID restricts the
// listing to that batch.
func (c *Catalog) ListRuns(batchID string, limit int) ([]ResampleRun, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			run_id, batch_id, source_path, dest_path, ratio, seed,
			source_vertices, kept_vertices, status, error,
			started_at, finished_at
		FROM resample_runs
	`
	args := []interface{}{}
	if batchID != "" {
		query += ` WHERE batch_id = ?`
		args = append(args, batchID)
	}
	query += ` ORDER BY started_at DESC, run_id LIMIT ?`
	args = append(args, limit)

	rows, err := c.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []ResampleRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*ResampleRun, error) {
	var run ResampleRun
	var startedAtUnix int64
	var finishedAtUnix *int64

	err := row.Scan(
		&run.RunID,
		&run.BatchID,
		&run.SourcePath,
		&run.DestPath,
		&run.Ratio,
		&run.Seed,
		&run.SourceVertices,
		&run.KeptVertices,
		&run.Status,
		&run.Error,
		&startedAtUnix,
		&finishedAtUnix,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(startedAtUnix, 0)
	if finishedAtUnix != nil {
		finished := time.Unix(*finishedAtUnix, 0)
		run.FinishedAt = &finished
	}

	return &run, nil
}
