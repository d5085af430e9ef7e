package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/engine"
	"github.com/roach88/hpp/internal/manifest"
)

// MakeOptions holds flags for the make command.
type MakeOptions struct {
	*RootOptions
	Only     []string
	Force    bool
	Database string
	Set      []string
	SetJSON  []string
	Limits   LimitOptions

	// RunIDs allows overriding the run ID generator (for testing).
	RunIDs engine.RunIDGenerator
}

// MakeResult is one completed manifest build.
type MakeResult struct {
	Name string `json:"name"`
	*engine.Result
}

// NewMakeCommand creates the make command.
func NewMakeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MakeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "make [manifest]",
		Short: "Run the builds declared in a manifest",
		Long: `Run every build declared in a YAML manifest, in declaration order.

The manifest defaults to ` + manifest.DefaultFile + ` in the current directory.
Paths in the manifest resolve against the manifest's directory. The first
failing build stops the run; builds already written are kept.

Example manifest:
  builds:
    - name: site
      start: src/index.html
      output: dist/index.html
      vars_files: [site.yaml]
      vars:
        version: 1.2.0

Example:
  hpp make
  hpp make deploy/hpp.yaml --only site --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifest.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			return runMake(opts, path, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Only, "only", nil, "run only the named build; repeatable")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing outputs for every build")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite ledger")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "bind a string variable as name=value for every build; repeatable")
	cmd.Flags().StringArrayVar(&opts.SetJSON, "set-json", nil, "bind a variable to a JSON value as name=json for every build; repeatable")
	addLimitFlags(cmd, &opts.Limits)

	return cmd
}

func runMake(opts *MakeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	m, err := manifest.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	builds, err := selectBuilds(m, opts.Only)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid build selection", err)
	}

	ledger, err := openLedger(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	if ledger != nil {
		defer ledger.Close()
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	results := make([]MakeResult, 0, len(builds))

	for _, b := range builds {
		extra := map[string]string{"build": b.Name}

		table, err := loadVars(b.VarsFiles, b.Vars, VarsOptions{Set: opts.Set, SetJSON: opts.SetJSON})
		if err != nil {
			_ = formatter.Error(ErrCodeVars, fmt.Sprintf("%s: %v", b.Name, err), extra)
			return WrapExitError(ExitCommandError, "failed to load variables", err)
		}

		cfg := engine.Config{
			StartFile:      b.Start,
			OutputFile:     b.Output,
			AllowOverwrite: b.Overwrite || opts.Force,
			Vars:           table,
			Fallback:       codec.StringFallback,
			Verbose:        opts.Verbose,
			Logger:         logger.With("build", b.Name),
			MaxDepth:       opts.Limits.MaxDepth,
			RunIDs:         opts.RunIDs,
		}
		if ledger != nil {
			cfg.Recorder = ledger
		}

		res, err := runAssembly(cmd.Context(), cfg)
		if err != nil {
			return reportRunError(formatter, res, err, extra)
		}

		results = append(results, MakeResult{Name: b.Name, Result: res})
		formatter.Done("%s: wrote %s (%d bytes, %d files)", b.Name, res.OutputFile, res.Bytes, len(res.Loads))
		logLoads(formatter, res.Loads)
	}

	if formatter.JSON() {
		return formatter.Success(results)
	}
	return nil
}

// selectBuilds returns the builds named in only, in manifest order, or every
// build when only is empty.
func selectBuilds(m *manifest.Manifest, only []string) ([]manifest.Build, error) {
	if len(only) == 0 {
		return m.Builds, nil
	}

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		if _, ok := m.Find(name); !ok {
			return nil, fmt.Errorf("no build named %q in %s", name, m.Path)
		}
		wanted[name] = true
	}

	var builds []manifest.Build
	for _, b := range m.Builds {
		if wanted[b.Name] {
			builds = append(builds, b)
		}
	}
	return builds, nil
}
