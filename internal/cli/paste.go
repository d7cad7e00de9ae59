package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

// PasteOptions holds flags for the paste command.
type PasteOptions struct {
	*RootOptions
	Scene    string
	At       string
	Rotate   float32
	Raise    int
	MaxTicks int
}

// PasteResult reports a finished paste.
type PasteResult struct {
	Job        string   `json:"job"`
	Ticks      int      `json:"ticks"`
	Spawned    int      `json:"spawned"`
	Joints     int      `json:"joints"`
	WorldTotal int      `json:"world_total"`
	Skipped    []string `json:"skipped,omitempty"`
}

// NewPasteCommand creates the paste command.
func NewPasteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PasteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "paste <file>",
		Short: "Replay a snapshot into a sandbox world",
		Long: `Load a snapshot and paste it into a sandbox world, optionally built from a
scene, ticking the paste job until it finishes. Records the world cannot
recreate are skipped and listed.

Exit codes:
  0 - Paste finished (possibly with skipped records)
  1 - Snapshot could not be decoded, or the paste did not finish in --max-ticks
  2 - Command error

Examples:
  dupe paste cart.dupe --at 0,200,0
  dupe paste cart.dupe --scene yard.yaml --at 0,0,0 --rotate 90 --raise 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaste(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Scene, "scene", "", "scene YAML to paste into (default: empty world)")
	cmd.Flags().StringVar(&opts.At, "at", "0,0,0", "paste point x,y,z")
	cmd.Flags().Float32Var(&opts.Rotate, "rotate", 0, "yaw offset in degrees")
	cmd.Flags().IntVar(&opts.Raise, "raise", 0, "height offset in height steps")
	cmd.Flags().IntVar(&opts.MaxTicks, "max-ticks", 100000, "give up after this many ticks")

	return cmd
}

func runPaste(opts *PasteOptions, cmd *cobra.Command, path string) error {
	const requester = "cli"

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	log := opts.Logger(cmd.ErrOrStderr())

	at, err := parseVec(opts.At)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --at", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}
	w, _, _, err := loadWorld(opts.Scene, log)
	if err != nil {
		return err
	}

	m := newManager(cfg, w, log)
	m.Connect(requester)
	if err := m.Load(requester, data); err != nil {
		return WrapExitError(ExitFailure, "failed to load snapshot", err)
	}
	if _, err := m.Rotate(requester, opts.Rotate); err != nil {
		return err
	}
	if _, err := m.Raise(requester, opts.Raise); err != nil {
		return err
	}

	before, joints := w.Len(), len(w.Joints())
	job, err := m.Paste(requester, at)
	if err != nil {
		return WrapExitError(ExitFailure, "paste failed", err)
	}

	ticks := 0
	for !job.Done() {
		if ticks == opts.MaxTicks {
			m.Disconnect(requester)
			return NewExitError(ExitFailure, fmt.Sprintf("paste did not finish in %d ticks", opts.MaxTicks))
		}
		m.Tick()
		ticks++
	}

	res := PasteResult{
		Job:        job.ID(),
		Ticks:      ticks,
		Spawned:    w.Len() - before,
		Joints:     len(w.Joints()) - joints,
		WorldTotal: w.Len(),
	}
	for _, e := range job.Errors() {
		res.Skipped = append(res.Skipped, e.Error())
	}

	return opts.formatter(cmd).Success(res, func(out io.Writer) {
		fmt.Fprintf(out, "Pasted %d objects, %d joints in %d ticks (job %s)\n", res.Spawned, res.Joints, res.Ticks, res.Job)
		for _, msg := range res.Skipped {
			fmt.Fprintf(out, "  skipped: %s\n", msg)
		}
		if opts.Verbose {
			for _, o := range w.Objects()[before:] {
				p := o.Transform().Position
				fmt.Fprintf(out, "  #%d %s at %s\n", o.ID(), o.ClassName(), vecString(p))
			}
		}
	})
}

func vecString(v mgl32.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X(), v.Y(), v.Z())
}
