package store

import (
	"context"
	"fmt"
)

// RecordRun inserts a run and its loads in one transaction.
//
// Recording the same run ID twice is an error; the ledger is append-only.
func (s *Store) RecordRun(ctx context.Context, run Run) (err error) {
	if run.ID == "" {
		return fmt.Errorf("record run: empty run id")
	}
	if run.Status != StatusOK && run.Status != StatusFailed {
		return fmt.Errorf("record run %s: invalid status %q", run.ID, run.Status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run %s: begin: %w", run.ID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, start_file, output_file, status, error_code, error_message, output_bytes, output_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartFile,
		run.OutputFile,
		string(run.Status),
		run.ErrorCode,
		run.ErrorMessage,
		run.OutputBytes,
		run.OutputDigest,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	for i, load := range run.Loads {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO loads
			(run_id, seq, path, mode, depth, bytes, digest)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i+1,
			load.Path,
			string(load.Mode),
			load.Depth,
			load.Bytes,
			load.Digest,
		)
		if err != nil {
			return fmt.Errorf("record run %s: load %d: %w", run.ID, i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return nil
}
