package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/engine"
	"github.com/roach88/hpp/internal/models"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Print  bool
	Vars   VarsOptions
	Limits LimitOptions
}

// CheckResult is the JSON payload of a successful check.
type CheckResult struct {
	StartFile string              `json:"start_file"`
	Bytes     int                 `json:"bytes"`
	Digest    string              `json:"digest"`
	Loads     []models.LoadRecord `json:"loads"`
	Document  string              `json:"document,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <start-file>",
		Short: "Expand a start file without writing output",
		Long: `Expand every directive reachable from the start file and report the
files that would be read. Nothing is written.

With --print the expanded document is written to stdout instead of the
file list.

Example:
  hpp check src/index.html
  hpp check src/index.html --set version=dev --print > preview.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Print, "print", "p", false, "print the expanded document")
	addVarsFlags(cmd, &opts.Vars)
	addLimitFlags(cmd, &opts.Limits)

	return cmd
}

func runCheck(opts *CheckOptions, start string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	table, err := loadVars(nil, nil, opts.Vars)
	if err != nil {
		_ = formatter.Error(ErrCodeVars, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load variables", err)
	}

	a, err := engine.New(engine.Config{
		StartFile: start,
		Vars:      table,
		Fallback:  codec.StringFallback,
		Verbose:   opts.Verbose,
		Logger:    newLogger(opts.RootOptions, cmd.ErrOrStderr()),
		MaxDepth:  opts.Limits.MaxDepth,
	})
	if err != nil {
		return reportAssemblyError(formatter, err, nil)
	}

	doc, loads, err := a.Assemble()
	if err != nil {
		return reportAssemblyError(formatter, err, nil)
	}

	if formatter.JSON() {
		res := CheckResult{
			StartFile: a.StartFile(),
			Bytes:     len(doc),
			Digest:    codec.DigestString(doc),
			Loads:     loads,
		}
		if opts.Print {
			res.Document = doc
		}
		return formatter.Success(res)
	}

	if opts.Print {
		_, err := fmt.Fprint(formatter.Writer, doc)
		return err
	}

	formatter.Done("%s: %d bytes from %d files", a.StartFile(), len(doc), len(loads))
	for _, l := range loads {
		fmt.Fprintf(formatter.Writer, "  %s%s (%s, %d bytes)\n", indent(l.Depth), l.Path, l.Mode, l.Bytes)
	}
	return nil
}
