package engine

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/store"
)

// DefaultMaxDepth bounds how deeply loaded content may nest.
const DefaultMaxDepth = 64

// Recorder persists the outcome of a run. *store.Store implements it.
type Recorder interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// Config is the Run Context of one assembly.
type Config struct {
	// StartFile is the file expansion begins from. Its directory is the base
	// directory for every relative reference in the run.
	StartFile string

	// OutputFile receives the expanded document. Only Run needs it.
	OutputFile string

	// AllowOverwrite permits replacing an existing OutputFile.
	AllowOverwrite bool

	// Vars is the variable-binding table for hpp_pyvar. It is copied by New.
	Vars map[string]any

	// Fallback converts values the structured serializer cannot represent.
	// Nil means such values fail with UNSERIALIZABLE_VALUE.
	Fallback codec.Fallback

	// Verbose enables the debug trace. Ignored when Logger is set; the
	// logger's own level applies then.
	Verbose bool

	// Logger receives the trace. Nil logs to stderr when Verbose is set and
	// discards otherwise.
	Logger *slog.Logger

	// MaxDepth defaults to DefaultMaxDepth when zero.
	MaxDepth int

	// Recorder, if set, receives every run Run performs.
	Recorder Recorder

	// RunIDs defaults to UUIDv7Generator.
	RunIDs RunIDGenerator
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if c.Verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.RunIDs == nil {
		c.RunIDs = UUIDv7Generator{}
	}

	vars := make(map[string]any, len(c.Vars))
	for name, val := range c.Vars {
		vars[name] = val
	}
	c.Vars = vars

	c.Logger = c.logger()
	return c
}
