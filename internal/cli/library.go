package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/store"
)

// LibraryOptions holds the flags shared by the library commands.
type LibraryOptions struct {
	*RootOptions
	Database string
	Owner    string
}

func (o *LibraryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to the snapshot library (default: config store)")
	cmd.Flags().StringVar(&o.Owner, "owner", "local", "library owner")
}

func (o *LibraryOptions) open(cmd *cobra.Command) (*store.Store, error) {
	path := o.Database
	if path == "" {
		cfg, err := o.LoadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Store
	}
	st, err := store.Open(path, store.WithLogger(o.Logger(cmd.ErrOrStderr())))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open library", err)
	}
	return st, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitFailure, "no such snapshot", err)
	}
	return WrapExitError(ExitCommandError, "library error", err)
}

// SaveResult reports a library save.
type SaveResult struct {
	store.Entry
	Created bool `json:"created"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Add a snapshot file to the library",
		Long: `Decode a snapshot file and store it in the library under --owner.

Saving the same snapshot twice for one owner returns the existing entry.

Examples:
  dupe save cart.dupe
  dupe save cart.json --owner alice --db ./library.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, cmd, args[0])
		},
	}
	opts.bind(cmd)
	return cmd
}

func runSave(opts *LibraryOptions, cmd *cobra.Command, path string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	d, err := readSnapshot(path, cfg.DecodeLimits(), opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	st, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	e, created, err := st.Save(context.Background(), opts.Owner, d.Snapshot)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save snapshot", err)
	}

	res := SaveResult{Entry: e, Created: created}
	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		if created {
			fmt.Fprintf(w, "Saved %s as %s\n", path, e.ID)
			return
		}
		fmt.Fprintf(w, "Already saved as %s\n", e.ID)
	})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library snapshots",
		Long: `List the snapshots stored for --owner in save order. Pass --owner ""
to list every owner.

Examples:
  dupe list
  dupe list --owner alice --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runList(opts *LibraryOptions, cmd *cobra.Command) error {
	st, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(context.Background(), opts.Owner)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list snapshots", err)
	}
	if entries == nil {
		entries = []store.Entry{}
	}

	return opts.formatter(cmd).Success(entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No snapshots found.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tOWNER\tNAME\tOBJECTS\tCONSTRAINTS\tDATE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", e.ID, e.Owner, e.Name, e.Objects, e.Constraints, e.Date)
		}
		tw.Flush()
	})
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	LibraryOptions
	Output string
	To     string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{LibraryOptions: LibraryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Write a library snapshot to a file",
		Long: `Fetch a snapshot from the library by id and write it out.

Examples:
  dupe load 0192f0c4-... -o cart.dupe
  dupe load 0192f0c4-... -o cart.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, cmd, args[0])
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.To, "to", "", "output format (text|binary)")
	return cmd
}

func runLoad(opts *LoadOptions, cmd *cobra.Command, id string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	st, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.Load(context.Background(), id, codec.WithLimits(cfg.DecodeLimits()))
	if err != nil {
		return notFound(err)
	}

	format := formatFor(opts.Output, opts.To)
	n, err := writeSnapshot(opts.Output, snap, format)
	if err != nil {
		return err
	}

	res := ConvertResult{From: id, To: opts.Output, Format: format, Bytes: n}
	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %s (%s, %d bytes)\n", opts.Output, format, n)
	})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove a snapshot from the library",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, cmd, args[0])
		},
	}
	opts.bind(cmd)
	return cmd
}

func runDelete(opts *LibraryOptions, cmd *cobra.Command, id string) error {
	st, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(context.Background(), id); err != nil {
		return notFound(err)
	}
	return opts.formatter(cmd).Success(map[string]string{"deleted": id}, func(w io.Writer) {
		fmt.Fprintf(w, "Deleted %s\n", id)
	})
}
