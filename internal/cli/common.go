package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hpp/internal/engine"
	"github.com/roach88/hpp/internal/models"
	"github.com/roach88/hpp/internal/store"
	"github.com/roach88/hpp/internal/vars"
)

// Error codes for failures outside the assembly error taxonomy.
const (
	ErrCodeGeneric  = "ERROR"          // Unclassified error
	ErrCodeVars     = "VARS_ERROR"     // Variables file or --set pair could not be read
	ErrCodeManifest = "MANIFEST_ERROR" // Manifest missing or invalid
	ErrCodeLedger   = "LEDGER_ERROR"   // Ledger could not be opened, read or written
	ErrCodeDecode   = "DECODE_ERROR"   // Payload is not valid base64 or zlib
	ErrCodeNotFound = "NOT_FOUND"      // Ledger or run does not exist
)

// VarsOptions holds the variable-binding flags shared by build, make and check.
type VarsOptions struct {
	Files   []string
	Set     []string
	SetJSON []string
}

func addVarsFlags(cmd *cobra.Command, o *VarsOptions) {
	cmd.Flags().StringArrayVar(&o.Files, "vars", nil, "variables file (.cue, .yaml, .yml, .json, .hcl); repeatable, later files win")
	cmd.Flags().StringArrayVar(&o.Set, "set", nil, "bind a string variable as name=value; repeatable, overrides files")
	cmd.Flags().StringArrayVar(&o.SetJSON, "set-json", nil, "bind a variable to a JSON value as name=json; repeatable, overrides files")
}

// LimitOptions holds the expansion guard flags.
type LimitOptions struct {
	MaxDepth int
}

func addLimitFlags(cmd *cobra.Command, o *LimitOptions) {
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum nesting depth of loaded files")
}

// loadVars builds a binding table: files in order, then inline bindings,
// then JSON-typed pairs, then string pairs.
func loadVars(files []string, inline map[string]any, o VarsOptions) (map[string]any, error) {
	paths := append(append([]string(nil), files...), o.Files...)
	table, err := vars.LoadFiles(paths...)
	if err != nil {
		return nil, err
	}

	if len(inline) > 0 {
		normalized, err := vars.Normalize(inline)
		if err != nil {
			return nil, fmt.Errorf("inline vars: %w", err)
		}
		vars.Merge(table, normalized)
	}

	typed, err := vars.ParseJSONAssignments(o.SetJSON)
	if err != nil {
		return nil, err
	}
	vars.Merge(table, typed)

	assigned, err := vars.ParseAssignments(o.Set)
	if err != nil {
		return nil, err
	}
	vars.Merge(table, assigned)
	return table, nil
}

// newLogger returns the engine trace logger: debug level when verbose,
// warnings only otherwise.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openLedger opens the ledger at path, creating it if needed.
// An empty path means no ledger and returns nil.
func openLedger(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	return store.Open(path)
}

// openExistingLedger opens a ledger that must already exist.
func openExistingLedger(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}

// runAssembly constructs an assembler and runs it once.
func runAssembly(ctx context.Context, cfg engine.Config) (*engine.Result, error) {
	a, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx)
}

// reportRunError prints err and returns the matching ExitError. A Result
// with an error means the output was written but the ledger write failed.
func reportRunError(f *OutputFormatter, res *engine.Result, err error, extra map[string]string) error {
	if res != nil {
		_ = f.Error(ErrCodeLedger, err.Error(), extra)
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	return reportAssemblyError(f, err, extra)
}

// reportAssemblyError prints an assembly failure with its code and returns
// an ExitFailure error.
func reportAssemblyError(f *OutputFormatter, err error, extra map[string]string) error {
	var me *models.Error
	if !errors.As(err, &me) {
		_ = f.Error(ErrCodeGeneric, err.Error(), detailsOrNil(extra))
		return WrapExitError(ExitFailure, "assembly failed", err)
	}

	details := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		details[k] = v
	}
	if me.Path != "" {
		details["path"] = me.Path
	}
	if me.Directive != "" {
		details["directive"] = me.Directive
	}

	message := strings.TrimPrefix(me.Error(), string(me.Code)+": ")
	_ = f.Error(string(me.Code), message, detailsOrNil(details))
	return WrapExitError(ExitFailure, "assembly failed", err)
}

func detailsOrNil(details map[string]string) any {
	if len(details) == 0 {
		return nil
	}
	return details
}
