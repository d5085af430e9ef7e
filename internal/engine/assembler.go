package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/filelock"
	"github.com/roach88/hpp/internal/loader"
	"github.com/roach88/hpp/internal/models"
	"github.com/roach88/hpp/internal/store"
)

// Assembler expands one start file into one output document.
//
// An Assembler may be used for several runs; each run gets its own Load
// Registry. It is not safe for concurrent use.
type Assembler struct {
	cfg       Config
	startFile string
	baseDir   string
	output    string
	logger    *slog.Logger
}

// Result describes a successful run.
type Result struct {
	RunID      string              `json:"run_id"`
	OutputFile string              `json:"output_file"`
	Bytes      int                 `json:"bytes"`
	Digest     string              `json:"digest"`
	Loads      []models.LoadRecord `json:"loads"`
}

// New validates cfg and returns an Assembler.
//
// Returns a CodeFileNotFound error if the start file is missing or is not a
// regular file, and a CodeOutputExists error if OutputFile is set, exists,
// and AllowOverwrite is false.
func New(cfg Config) (*Assembler, error) {
	cfg = cfg.withDefaults()

	if cfg.StartFile == "" {
		return nil, models.NewError(models.CodeFileNotFound, "no start file given")
	}
	start, err := filepath.Abs(cfg.StartFile)
	if err != nil {
		return nil, models.NewError(models.CodeIO, "resolving start file %s", cfg.StartFile).Wrap(err)
	}

	info, err := os.Stat(start)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, models.NewError(models.CodeFileNotFound, "%s not found", cfg.StartFile).WithPath(start).Wrap(err)
	case err != nil:
		return nil, models.NewError(models.CodeIO, "checking start file %s", cfg.StartFile).WithPath(start).Wrap(err)
	case !info.Mode().IsRegular():
		return nil, models.NewError(models.CodeFileNotFound, "%s is not a regular file", cfg.StartFile).WithPath(start)
	}

	a := &Assembler{
		cfg:       cfg,
		startFile: start,
		baseDir:   filepath.Dir(start),
		logger:    cfg.Logger,
	}

	if cfg.OutputFile != "" {
		a.output, err = filepath.Abs(cfg.OutputFile)
		if err != nil {
			return nil, models.NewError(models.CodeIO, "resolving output file %s", cfg.OutputFile).Wrap(err)
		}
		if err := a.checkOutput(); err != nil {
			return nil, err
		}
	}

	a.logger.Debug("assembler created", "start", a.startFile, "output", a.output, "overwrite", cfg.AllowOverwrite)
	return a, nil
}

// StartFile returns the absolute start file path.
func (a *Assembler) StartFile() string {
	return a.startFile
}

// OutputFile returns the absolute output path, or "" if none is configured.
func (a *Assembler) OutputFile() string {
	return a.output
}

// Assemble expands the start file without writing anything.
//
// It returns the expanded document and the files read, in read order. On
// error the records cover the files read before the failure.
func (a *Assembler) Assemble() (string, []models.LoadRecord, error) {
	ld, err := loader.New(a.baseDir, loader.NewRegistry(), loader.WithLogger(a.logger))
	if err != nil {
		return "", nil, err
	}

	x := &expander{
		loader:   ld,
		vars:     a.cfg.Vars,
		fallback: a.cfg.Fallback,
		logger:   a.logger,
		maxDepth: a.cfg.MaxDepth,
	}

	text, err := ld.Load(a.startFile, models.LoadText, false, 0)
	if err != nil {
		return "", ld.Records(), err
	}

	out, err := x.expand(text, 0)
	if err != nil {
		return "", ld.Records(), err
	}
	return out, ld.Records(), nil
}

// Run assembles the document and writes it to the output file.
//
// The output guard is checked again under the write lock, so a file that
// appeared since New still fails the run with CodeOutputExists and is left
// untouched. If a Recorder is configured the run is recorded whether or not
// it succeeded. A recording failure after a successful write returns both
// the Result and the error.
func (a *Assembler) Run(ctx context.Context) (*Result, error) {
	if a.output == "" {
		return nil, fmt.Errorf("engine: no output file configured")
	}

	runID := a.cfg.RunIDs.Generate()
	log := a.logger.With("run_id", runID)
	log.Info("run starting", "start", a.startFile, "output", a.output)

	out, loads, err := a.Assemble()
	if err == nil {
		err = a.write(out)
	}

	if err != nil {
		log.Info("run failed", "error", err)
		if recErr := a.record(ctx, runID, loads, "", err); recErr != nil {
			log.Error("failed to record run", "error", recErr)
		}
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		OutputFile: a.output,
		Bytes:      len(out),
		Digest:     codec.DigestString(out),
		Loads:      loads,
	}
	log.Info("run complete", "bytes", res.Bytes, "files", len(loads))

	if recErr := a.record(ctx, runID, loads, out, nil); recErr != nil {
		return res, recErr
	}
	return res, nil
}

func (a *Assembler) checkOutput() error {
	if !a.cfg.AllowOverwrite && filelock.Exists(a.output) {
		return models.NewError(models.CodeOutputExists, "%s already exists", a.cfg.OutputFile).WithPath(a.output)
	}
	return nil
}

func (a *Assembler) write(out string) error {
	if err := a.checkOutput(); err != nil {
		return err
	}

	err := filelock.LockAndWrite(a.output, []byte(out), a.cfg.AllowOverwrite)
	if errors.Is(err, filelock.ErrExists) {
		return models.NewError(models.CodeOutputExists, "%s already exists", a.cfg.OutputFile).WithPath(a.output)
	}
	if err != nil {
		return models.NewError(models.CodeIO, "writing %s", a.cfg.OutputFile).WithPath(a.output).Wrap(err)
	}
	return nil
}

func (a *Assembler) record(ctx context.Context, runID string, loads []models.LoadRecord, out string, runErr error) error {
	if a.cfg.Recorder == nil {
		return nil
	}

	run := store.Run{
		ID:         runID,
		StartFile:  a.startFile,
		OutputFile: a.output,
		Status:     store.StatusOK,
		Loads:      loads,
	}
	if runErr != nil {
		run.Status = store.StatusFailed
		run.ErrorCode = string(models.CodeOf(runErr))
		run.ErrorMessage = runErr.Error()
	} else {
		run.OutputBytes = len(out)
		run.OutputDigest = codec.DigestString(out)
	}

	if err := a.cfg.Recorder.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("recording run %s: %w", runID, err)
	}
	return nil
}
