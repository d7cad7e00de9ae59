package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	To string
}

// ConvertResult reports a conversion.
type ConvertResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Format string `json:"format"`
	Bytes  int    `json:"bytes"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a snapshot between binary and text",
		Long: `Read a snapshot in either encoding and write it in the other.

The output format comes from --to, or from the output extension: .json
writes text, anything else writes binary.

Examples:
  dupe convert cart.dupe cart.json
  dupe convert cart.json cart.dupe
  dupe convert cart.dupe cart.txt --to text`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "output format (text|binary)")

	return cmd
}

func runConvert(opts *ConvertOptions, cmd *cobra.Command, in, out string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	d, err := readSnapshot(in, cfg.DecodeLimits(), opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	format := formatFor(out, opts.To)
	n, err := writeSnapshot(out, d.Snapshot, format)
	if err != nil {
		return err
	}

	res := ConvertResult{From: in, To: out, Format: format, Bytes: n}
	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %s (%s, %d bytes)\n", out, format, n)
	})
}
