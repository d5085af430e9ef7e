package models

// LoadMode selects how a source file is read.
type LoadMode string

const (
	// LoadText reads the file as text.
	LoadText LoadMode = "text"

	// LoadBinary reads raw bytes and encodes them as base64 text.
	LoadBinary LoadMode = "binary"
)

// LoadRecord describes one file read during a run.
// Duplicate-suppressed loads produce no record.
type LoadRecord struct {
	Path   string   `json:"path"`
	Mode   LoadMode `json:"mode"`
	Depth  int      `json:"depth"`
	Bytes  int      `json:"bytes"`
	Digest string   `json:"digest"`
}
