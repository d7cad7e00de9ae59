package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/dupe/internal/codec"
)

// InspectResult summarises one snapshot file.
type InspectResult struct {
	Path        string         `json:"path"`
	Format      string         `json:"format"`
	Name        string         `json:"name"`
	Author      string         `json:"author"`
	Date        string         `json:"date"`
	Fingerprint string         `json:"fingerprint"`
	Objects     int            `json:"objects"`
	Frozen      int            `json:"frozen"`
	Constraints int            `json:"constraints"`
	Classes     map[string]int `json:"classes"`
	Kinds       map[string]int `json:"kinds"`
	Dropped     []string       `json:"dropped,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarise a snapshot file",
		Long: `Decode a binary or text snapshot and print its metadata and record counts.

Constraints dropped for dangling references are listed.

Examples:
  dupe inspect cart.dupe
  dupe inspect cart.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, cmd, args[0])
		},
	}
}

func runInspect(opts *RootOptions, cmd *cobra.Command, path string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	d, err := readSnapshot(path, cfg.DecodeLimits(), opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	snap := d.Snapshot

	bin, err := codec.Encode(snap)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode snapshot", err)
	}

	res := InspectResult{
		Path:        path,
		Format:      d.Format,
		Name:        snap.Name,
		Author:      snap.Author,
		Date:        snap.Date,
		Fingerprint: codec.Fingerprint(bin),
		Objects:     len(snap.Objects),
		Constraints: len(snap.Constraints),
		Classes:     map[string]int{},
		Kinds:       map[string]int{},
	}
	for _, o := range snap.Objects {
		res.Classes[o.ClassName]++
		if o.Frozen {
			res.Frozen++
		}
	}
	for _, c := range snap.Constraints {
		res.Kinds[c.Kind.String()]++
	}
	for _, e := range d.Dropped {
		res.Dropped = append(res.Dropped, e.Error())
	}

	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "File:        %s (%s)\n", res.Path, res.Format)
		fmt.Fprintf(w, "Name:        %s\n", res.Name)
		fmt.Fprintf(w, "Author:      %s\n", res.Author)
		fmt.Fprintf(w, "Date:        %s\n", res.Date)
		fmt.Fprintf(w, "Fingerprint: %s\n", res.Fingerprint)
		fmt.Fprintf(w, "Objects:     %d (%d frozen)\n", res.Objects, res.Frozen)
		writeCounts(w, res.Classes)
		fmt.Fprintf(w, "Constraints: %d\n", res.Constraints)
		writeCounts(w, res.Kinds)
		if len(res.Dropped) > 0 {
			fmt.Fprintf(w, "Dropped:     %d\n", len(res.Dropped))
			for _, msg := range res.Dropped {
				fmt.Fprintf(w, "  %s\n", msg)
			}
		}
		if opts.Verbose {
			for _, o := range snap.Objects {
				fmt.Fprintf(w, "  #%d %s %q at %s\n", o.Index, o.ClassName, o.Model, vecString(o.Position))
			}
		}
	})
}

// writeCounts prints a name histogram in name order.
func writeCounts(w io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s: %d\n", n, counts[n])
	}
}
