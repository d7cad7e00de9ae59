package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/dupe/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a YAML config, empty for defaults

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// LoadConfig returns the configuration named by --config, loading it once.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	if o.Config == "" {
		o.cfg = config.Default()
		return o.cfg, nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.cfg = cfg
	return cfg, nil
}

// Logger returns a text logger on w: warnings by default, everything with
// --verbose.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// NewRootCommand creates the root command for the dupe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dupe",
		Short: "dupe - contraption capture and replay",
		Long: `Capture groups of attached objects into portable snapshot files and
replay them into a world a few records at a time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			_, err := opts.LoadConfig()
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config YAML")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewCaptureCommand(opts))
	cmd.AddCommand(NewPasteCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
