package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hpp/internal/models"
)

const runColumns = `seq, id, start_file, output_file, status, error_code, error_message, output_bytes, output_digest`

// ListRuns returns up to limit runs, newest first, without their loads.
// A limit of zero or less returns every run.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// RunsLoading returns every run that read path, newest first.
func (s *Store) RunsLoading(ctx context.Context, path string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id IN (SELECT run_id FROM loads WHERE path = ?)
		ORDER BY seq DESC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("query runs loading %s: %w", path, err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// GetRun returns one run with its loads in read order.
// Returns ErrRunNotFound if id is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	loads, err := s.readLoads(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Loads = loads
	return &run, nil
}

func (s *Store) readLoads(ctx context.Context, runID string) ([]models.LoadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, mode, depth, bytes, digest
		FROM loads
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	loads := []models.LoadRecord{}
	for rows.Next() {
		var (
			load models.LoadRecord
			mode string
		)
		if err := rows.Scan(&load.Path, &mode, &load.Depth, &load.Bytes, &load.Digest); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		load.Mode = models.LoadMode(mode)
		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loads: %w", err)
	}
	return loads, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run    Run
		status string
	)
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&run.StartFile,
		&run.OutputFile,
		&status,
		&run.ErrorCode,
		&run.ErrorMessage,
		&run.OutputBytes,
		&run.OutputDigest,
	)
	if err != nil {
		return Run{}, err
	}
	run.Status = RunStatus(status)
	return run, nil
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
