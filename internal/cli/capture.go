package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"

	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/config"
	"github.com/roach88/dupe/internal/sandbox"
	"github.com/roach88/dupe/internal/tool"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	Seed   string
	Area   bool
	At     string
	Output string
	To     string
	Name   string
	Author string
}

// CaptureResult reports a capture.
type CaptureResult struct {
	Output      string   `json:"output"`
	Format      string   `json:"format"`
	Name        string   `json:"name"`
	Objects     int      `json:"objects"`
	Constraints int      `json:"constraints"`
	Fingerprint string   `json:"fingerprint"`
	Skipped     []string `json:"skipped,omitempty"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture <scene.yaml>",
		Short: "Capture a contraption from a scene into a snapshot file",
		Long: `Build the scene in a sandbox world and capture either everything attached
to the --seed entity or everything inside the area box around --at.

The capture origin is --at, defaulting to the seed's position.

Exit codes:
  0 - Snapshot written
  1 - Nothing was captured
  2 - Command error (bad scene, unknown seed, etc.)

Examples:
  dupe capture cart.yaml --seed chassis -o cart.dupe
  dupe capture cart.yaml --area --at 0,0,0 -o yard.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "scene entity to copy from")
	cmd.Flags().BoolVar(&opts.Area, "area", false, "copy the area box around --at")
	cmd.Flags().StringVar(&opts.At, "at", "", "capture origin x,y,z")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.To, "to", "", "output format (text|binary)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "snapshot name (default: scene name)")
	cmd.Flags().StringVar(&opts.Author, "author", "cli", "snapshot author")

	return cmd
}

func runCapture(opts *CaptureOptions, cmd *cobra.Command, scenePath string) error {
	if opts.Seed == "" && !opts.Area {
		return NewExitError(ExitCommandError, "one of --seed or --area is required")
	}
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	log := opts.Logger(cmd.ErrOrStderr())

	w, scene, named, err := loadWorld(scenePath, log)
	if err != nil {
		return err
	}

	var seed *sandbox.Entity
	if opts.Seed != "" {
		var ok bool
		if seed, ok = named[opts.Seed]; !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("scene has no entity %q", opts.Seed))
		}
	}

	var at mgl32.Vec3
	switch {
	case opts.At != "":
		if at, err = parseVec(opts.At); err != nil {
			return WrapExitError(ExitCommandError, "invalid --at", err)
		}
	case seed != nil:
		at = seed.Transform().Position
	}

	m := newManager(cfg, w, log)
	s := m.Connect(opts.Author)
	name := opts.Name
	if name == "" {
		name = scene.Name
	}
	s.SetName(name)
	if opts.Area {
		if _, err := m.ToggleArea(opts.Author); err != nil {
			return err
		}
	}

	var src *sandbox.Entity
	if !opts.Area {
		src = seed
	}
	snap, err := m.Copy(opts.Author, entityObject(src), at)
	if err != nil {
		return WrapExitError(ExitFailure, "capture failed", err)
	}
	if snap == nil {
		return NewExitError(ExitFailure, "nothing was captured")
	}

	format := formatFor(opts.Output, opts.To)
	if _, err := writeSnapshot(opts.Output, snap, format); err != nil {
		return err
	}
	bin, err := codec.Encode(snap)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode snapshot", err)
	}

	res := CaptureResult{
		Output:      opts.Output,
		Format:      format,
		Name:        snap.Name,
		Objects:     len(snap.Objects),
		Constraints: len(snap.Constraints),
		Fingerprint: codec.Fingerprint(bin),
	}
	for _, e := range s.Skipped() {
		res.Skipped = append(res.Skipped, e.Error())
	}
	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Captured %d objects, %d constraints into %s\n", res.Objects, res.Constraints, res.Output)
		for _, msg := range res.Skipped {
			fmt.Fprintf(w, "  skipped: %s\n", msg)
		}
	})
}

// newManager builds a tool manager over w from the configuration.
func newManager(cfg *config.Config, w *sandbox.World, log *slog.Logger) *tool.Manager {
	return tool.NewManager(w,
		tool.WithUndo(w),
		tool.WithAreaHalfExtent(float32(cfg.AreaHalfExtent)),
		tool.WithHeightStep(float32(cfg.HeightStep)),
		tool.WithAllowedClasses(cfg.AllowedClasses...),
		tool.WithFreezeAll(cfg.FreezeAll),
		tool.WithUnfreezeAll(cfg.UnfreezeAll),
		tool.WithBudget(cfg.Budget),
		tool.WithDecodeLimits(cfg.DecodeLimits()),
		tool.WithLogger(log),
	)
}
