package cli

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/filelock"
	"github.com/roach88/hpp/internal/models"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Binary bool
	Output string
	Force  bool
}

// DecodeResult is the JSON payload of a successful decode.
type DecodeResult struct {
	Bytes  int    `json:"bytes"`
	Output string `json:"output,omitempty"`
	Text   string `json:"text,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a compressed or base64 payload",
		Long: `Reverse the encoding applied by the compress flag or by hpp_bin2b64.

By default the input is read as compress output: base64 text holding a zlib
stream. With --binary the input is plain base64, as produced by hpp_bin2b64.
Input is read from the file argument or stdin. Surrounding whitespace is
ignored.

Example:
  hpp decode payload.txt
  hpp decode --binary -o logo.png logo.b64`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Binary, "binary", false, "input is plain base64, not compressed text")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write decoded bytes to this file instead of stdout")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing output file")

	return cmd
}

func runDecode(opts *DecodeOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	input, err := readInput(cmd, args)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	data, err := decodePayload(string(input), opts.Binary)
	if err != nil {
		_ = formatter.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to decode input", err)
	}

	if opts.Output != "" {
		err := filelock.LockAndWrite(opts.Output, data, opts.Force)
		if errors.Is(err, filelock.ErrExists) {
			_ = formatter.Error(string(models.CodeOutputExists), opts.Output+" already exists", nil)
			return WrapExitError(ExitFailure, "output exists", err)
		}
		if err != nil {
			_ = formatter.Error(string(models.CodeIO), err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to write output", err)
		}
		if formatter.JSON() {
			return formatter.Success(DecodeResult{Bytes: len(data), Output: opts.Output})
		}
		formatter.Done("wrote %s (%d bytes)", opts.Output, len(data))
		return nil
	}

	if formatter.JSON() {
		return formatter.Success(DecodeResult{Bytes: len(data), Text: string(data)})
	}
	_, err = formatter.Writer.Write(data)
	return err
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}

func decodePayload(payload string, binary bool) ([]byte, error) {
	if binary {
		return codec.DecodeBinary(payload)
	}
	text, err := codec.Decompress(payload)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
