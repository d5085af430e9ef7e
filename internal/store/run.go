package store

import (
	"errors"

	"github.com/roach88/hpp/internal/models"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	StatusOK     RunStatus = "ok"
	StatusFailed RunStatus = "failed"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one ledger entry.
type Run struct {
	// Seq is assigned by the store on insert; it orders runs.
	Seq int64 `json:"seq"`

	ID         string    `json:"id"`
	StartFile  string    `json:"start_file"`
	OutputFile string    `json:"output_file"`
	Status     RunStatus `json:"status"`

	// ErrorCode and ErrorMessage are empty for successful runs.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	OutputBytes  int    `json:"output_bytes"`
	OutputDigest string `json:"output_digest,omitempty"`

	// Loads lists the files read, in read order. ListRuns leaves it nil.
	Loads []models.LoadRecord `json:"loads,omitempty"`
}
