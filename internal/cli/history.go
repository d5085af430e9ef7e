package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/hpp/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	File     string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show runs recorded in a ledger",
		Long: `List runs recorded by build or make --db, newest first.

With a run ID, show that run and every file it read. With --file, list
only the runs that read the given file.

Example:
  hpp history --db .hpp/ledger.db
  hpp history --db .hpp/ledger.db --file src/parts/header.html
  hpp history --db .hpp/ledger.db 01912f5e-7c4a-7b3e-9f00-2a1c3d4e5f60`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite ledger (required)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.File, "file", "", "list only runs that read this file (absolute path as recorded)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	ledger, err := openExistingLedger(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("ledger %s: %v", opts.Database, err), nil)
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer ledger.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		run, err := ledger.GetRun(ctx, args[0])
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		if formatter.JSON() {
			return formatter.Success(run)
		}
		printRun(formatter.Writer, run)
		return nil
	}

	var runs []store.Run
	if opts.File != "" {
		runs, err = ledger.RunsLoading(ctx, opts.File)
	} else {
		runs, err = ledger.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs recorded")
		return nil
	}
	printRuns(formatter.Writer, runs)
	return nil
}

func printRuns(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSTATUS\tOUTPUT\tDETAIL")
	for _, r := range runs {
		detail := fmt.Sprintf("%d bytes", r.OutputBytes)
		if r.Status == store.StatusFailed {
			detail = r.ErrorCode
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.ID, r.Status, r.OutputFile, detail)
	}
	_ = tw.Flush()
}

func printRun(w io.Writer, r *store.Run) {
	fmt.Fprintf(w, "Run:    %s\n", r.ID)
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	fmt.Fprintf(w, "Start:  %s\n", r.StartFile)
	fmt.Fprintf(w, "Output: %s\n", r.OutputFile)
	if r.Status == store.StatusFailed {
		fmt.Fprintf(w, "Error:  [%s] %s\n", r.ErrorCode, r.ErrorMessage)
	} else {
		fmt.Fprintf(w, "Bytes:  %d\n", r.OutputBytes)
		fmt.Fprintf(w, "Digest: %s\n", r.OutputDigest)
	}

	fmt.Fprintf(w, "Loads:  %d\n", len(r.Loads))
	for _, l := range r.Loads {
		fmt.Fprintf(w, "  %s%s (%s, %d bytes)\n", indent(l.Depth), l.Path, l.Mode, l.Bytes)
	}
}
