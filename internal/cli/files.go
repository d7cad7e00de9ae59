package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/sandbox"
	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/world"
)

// decoded is a snapshot read from disk plus what the decoder had to drop.
type decoded struct {
	Snapshot *snapshot.Snapshot
	Format   string // "binary" | "text"
	Dropped  []error
}

// readSnapshot reads a binary or text snapshot file under the decode limits.
func readSnapshot(path string, limits codec.Limits, log *slog.Logger) (*decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	dec := codec.NewDecoder(bytes.NewReader(data), codec.WithLimits(limits), codec.WithLogger(log))
	format, decode := "binary", dec.Decode
	if codec.IsText(data) {
		format, decode = "text", dec.DecodeText
	}
	snap, err := decode()
	if err != nil {
		return nil, WrapExitError(ExitFailure, fmt.Sprintf("failed to decode %s", path), err)
	}
	return &decoded{Snapshot: snap, Format: format, Dropped: dec.Dropped()}, nil
}

// encodeSnapshot renders snap in the named format.
func encodeSnapshot(snap *snapshot.Snapshot, format string) ([]byte, error) {
	switch format {
	case "text":
		return codec.EncodeText(snap)
	case "binary":
		return codec.Encode(snap)
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown snapshot format %q: must be text or binary", format))
	}
}

// formatFor picks the output format: explicit wins, then a .json extension
// means text, anything else binary.
func formatFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "text"
	}
	return "binary"
}

func writeSnapshot(path string, snap *snapshot.Snapshot, format string) (int, error) {
	data, err := encodeSnapshot(snap, format)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}
	return len(data), nil
}

// parseVec parses "x,y,z".
func parseVec(s string) (mgl32.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("vector %q: want x,y,z", s)
	}
	var v mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// loadWorld builds a sandbox world from a scene file. An empty path gives
// an empty world.
func loadWorld(path string, log *slog.Logger) (*sandbox.World, *sandbox.Scene, map[string]*sandbox.Entity, error) {
	w := sandbox.New(sandbox.WithLogger(log))
	if path == "" {
		return w, &sandbox.Scene{}, map[string]*sandbox.Entity{}, nil
	}
	scene, err := sandbox.LoadScene(path)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	named, err := scene.Build(w)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to build scene", err)
	}
	return w, scene, named, nil
}

// entityObject returns e as a world.Object, keeping nil nil.
func entityObject(e *sandbox.Entity) world.Object {
	if e == nil {
		return nil
	}
	return e.Self()
}
