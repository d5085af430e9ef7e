package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/engine"
	"github.com/roach88/hpp/internal/models"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output   string
	Force    bool
	Database string
	Vars     VarsOptions
	Limits   LimitOptions

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <start-file>",
		Short: "Assemble a document from a start file",
		Long: `Expand every directive reachable from the start file and write the
result to the output file.

Relative paths in directives resolve against the start file's directory.
Nothing is written unless expansion succeeds. An existing output file is
never replaced unless --force is given.

Example:
  hpp build src/index.html -o dist/index.html
  hpp build src/index.html -o dist/index.html --vars site.yaml --set version=1.2.0
  hpp build src/index.html -o dist/index.html --force --db .hpp/ledger.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (required)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing output file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite ledger")
	addVarsFlags(cmd, &opts.Vars)
	addLimitFlags(cmd, &opts.Limits)
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runBuild(opts *BuildOptions, start string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	table, err := loadVars(nil, nil, opts.Vars)
	if err != nil {
		_ = formatter.Error(ErrCodeVars, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load variables", err)
	}

	ledger, err := openLedger(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	if ledger != nil {
		defer ledger.Close()
	}

	cfg := engine.Config{
		StartFile:      start,
		OutputFile:     opts.Output,
		AllowOverwrite: opts.Force,
		Vars:           table,
		Fallback:       codec.StringFallback,
		Verbose:        opts.Verbose,
		Logger:         newLogger(opts.RootOptions, cmd.ErrOrStderr()),
		MaxDepth:       opts.Limits.MaxDepth,
		RunIDs:         opts.RunIDs,
	}
	if ledger != nil {
		cfg.Recorder = ledger
	}

	res, err := runAssembly(cmd.Context(), cfg)
	if err != nil {
		return reportRunError(formatter, res, err, nil)
	}

	if formatter.JSON() {
		return formatter.Success(res)
	}
	formatter.Done("wrote %s (%d bytes, %d files)", res.OutputFile, res.Bytes, len(res.Loads))
	logLoads(formatter, res.Loads)
	return nil
}

// logLoads lists loaded files on the verbose stream, indented by depth.
func logLoads(f *OutputFormatter, loads []models.LoadRecord) {
	for _, l := range loads {
		f.VerboseLog("%s%s (%s, %d bytes)", indent(l.Depth), l.Path, l.Mode, l.Bytes)
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
