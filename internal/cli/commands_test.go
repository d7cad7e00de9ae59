package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/snapshot"
)

const cartScene = "../sandbox/testdata/cart.yaml"

// captureCart writes the chassis contraption from the cart scene to dir.
func captureCart(t *testing.T, dir, name string) string {
	t.Helper()
	out := filepath.Join(dir, name)
	_, err := execute(t, "capture", cartScene, "--seed", "chassis", "-o", out, "--author", "tester")
	require.NoError(t, err)
	return out
}

func decodeFile(t *testing.T, path string) *snapshot.Snapshot {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if codec.IsText(data) {
		snap, err := codec.DecodeText(data)
		require.NoError(t, err)
		return snap
	}
	snap, err := codec.Decode(data)
	require.NoError(t, err)
	return snap
}

// jsonData decodes a JSON response and returns its data object.
func jsonData(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestCapture_Seed(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cart.dupe")

	stdout, err := execute(t, "capture", cartScene, "--seed", "chassis", "-o", out, "--author", "tester")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Captured 3 objects, 2 constraints")

	snap := decodeFile(t, out)
	assert.Equal(t, "cart", snap.Name)
	assert.Equal(t, "tester", snap.Author)
	require.Len(t, snap.Objects, 3)
	assert.Len(t, snap.Constraints, 2)
	for _, c := range snap.Constraints {
		assert.Equal(t, snapshot.KindAxis, c.Kind)
	}
	// The seed sits at the origin.
	assert.InDelta(t, 0, snap.Objects[0].Position.Len(), 1e-4)
}

func TestCapture_AreaText(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rock.json")

	stdout, err := execute(t, "capture", cartScene, "--area", "--at", "500,0,0", "-o", out, "--name", "rock", "--format", "json")
	require.NoError(t, err)
	data := jsonData(t, stdout)
	assert.Equal(t, "text", data["format"])
	assert.EqualValues(t, 1, data["objects"])

	snap := decodeFile(t, out)
	assert.Equal(t, "rock", snap.Name)
	require.Len(t, snap.Objects, 1)
	assert.True(t, snap.Objects[0].Frozen)
}

func TestCapture_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no seed or area", []string{"capture", cartScene, "-o", filepath.Join(dir, "a")}, ExitCommandError},
		{"unknown seed", []string{"capture", cartScene, "--seed", "engine", "-o", filepath.Join(dir, "b")}, ExitCommandError},
		{"missing scene", []string{"capture", filepath.Join(dir, "none.yaml"), "--seed", "x", "-o", filepath.Join(dir, "c")}, ExitCommandError},
		{"bad origin", []string{"capture", cartScene, "--seed", "chassis", "--at", "1,2", "-o", filepath.Join(dir, "d")}, ExitCommandError},
		{"empty area", []string{"capture", cartScene, "--area", "--at", "9000,0,0", "-o", filepath.Join(dir, "e")}, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}

func TestCapture_ReportsSkippedJoints(t *testing.T) {
	dir := t.TempDir()
	scene := filepath.Join(dir, "cone.yaml")
	require.NoError(t, os.WriteFile(scene, []byte(`name: cone
entities:
  - name: base
    class: prop_physics
    position: [0, 0, 0]
  - name: arm
    class: prop_physics
    position: [0, 0, 20]
  - name: lid
    class: prop_physics
    position: [0, 0, 40]
joints:
  - type: fixed
    a: base
    b: arm
  - type: conical
    a: arm
    b: lid
`), 0o644))

	stdout, err := execute(t, "capture", scene, "--seed", "base", "-o", filepath.Join(dir, "cone.dupe"), "--format", "json")
	require.NoError(t, err)
	data := jsonData(t, stdout)
	assert.EqualValues(t, 3, data["objects"])
	assert.EqualValues(t, 1, data["constraints"])
	skipped, ok := data["skipped"].([]any)
	require.True(t, ok)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "UNKNOWN_KIND")
}

func TestInspect(t *testing.T) {
	path := captureCart(t, t.TempDir(), "cart.dupe")

	stdout, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Name:        cart")
	assert.Contains(t, stdout, "Author:      tester")
	assert.Contains(t, stdout, "Objects:     3 (0 frozen)")
	assert.Contains(t, stdout, "  prop_physics: 3")
	assert.Contains(t, stdout, "Constraints: 2")
	assert.Contains(t, stdout, "  axis: 2")
	assert.NotContains(t, stdout, "Dropped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, stdout, codec.Fingerprint(data))
}

func TestInspect_UndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.dupe")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	_, err := execute(t, "inspect", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, codec.HasCode(err, codec.ErrCodeBadMagic))
}

// TestConvert_RoundTrip tests that binary to text and back preserves every
// byte of the binary encoding.
func TestConvert_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	bin := captureCart(t, dir, "cart.dupe")
	text := filepath.Join(dir, "cart.json")
	back := filepath.Join(dir, "back.dupe")

	stdout, err := execute(t, "convert", bin, text)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(text,")

	_, err = execute(t, "convert", text, back)
	require.NoError(t, err)

	want, err := os.ReadFile(bin)
	require.NoError(t, err)
	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = execute(t, "convert", bin, filepath.Join(dir, "x"), "--to", "yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// TestConvert_OversizedTextIsCapped tests that a text file beyond the
// configured limits converts to a binary file that decodes back.
func TestConvert_OversizedTextIsCapped(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dupe.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("limits:\n  objects: 10\n"), 0o644))

	flood := &snapshot.Snapshot{Name: "flood"}
	for i := 0; i < 3000; i++ {
		flood.Objects = append(flood.Objects, snapshot.ObjectRecord{Index: int32(i), ClassName: "prop_physics"})
	}
	text, err := codec.EncodeText(flood)
	require.NoError(t, err)
	in := filepath.Join(dir, "flood.json")
	require.NoError(t, os.WriteFile(in, text, 0o644))

	out := filepath.Join(dir, "flood.dupe")
	_, err = execute(t, "convert", in, out, "--config", cfg)
	require.NoError(t, err)

	assert.Len(t, decodeFile(t, out).Objects, 10)
}

func TestPaste(t *testing.T) {
	path := captureCart(t, t.TempDir(), "cart.dupe")

	stdout, err := execute(t, "paste", path, "--at", "0,300,0", "--format", "json")
	require.NoError(t, err)
	data := jsonData(t, stdout)
	assert.EqualValues(t, 3, data["spawned"])
	assert.EqualValues(t, 2, data["joints"])
	assert.EqualValues(t, 3, data["world_total"])
	assert.Nil(t, data["skipped"])
	assert.LessOrEqual(t, data["ticks"], float64(3+2+1))
}

func TestPaste_IntoScene(t *testing.T) {
	path := captureCart(t, t.TempDir(), "cart.dupe")

	stdout, err := execute(t, "paste", path, "--scene", cartScene, "--at", "0,300,0", "--rotate", "90", "--raise", "2", "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pasted 3 objects, 2 joints")
	assert.Equal(t, 1+3, strings.Count(stdout, "\n"), "summary plus one line per pasted object")
}

func TestPaste_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.dupe")
	require.NoError(t, os.WriteFile(path, []byte("DUPE"), 0o644))

	_, err := execute(t, "paste", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

// TestLibrary_Lifecycle tests save, list, load and delete against one
// library file.
func TestLibrary_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "lib.db")
	path := captureCart(t, dir, "cart.dupe")

	stdout, err := execute(t, "save", path, "--db", db, "--owner", "alice", "--format", "json")
	require.NoError(t, err)
	saved := jsonData(t, stdout)
	assert.Equal(t, true, saved["created"])
	id, _ := saved["id"].(string)
	require.NotEmpty(t, id)

	stdout, err = execute(t, "save", path, "--db", db, "--owner", "alice")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Already saved as "+id)

	stdout, err = execute(t, "list", "--db", db, "--owner", "alice")
	require.NoError(t, err)
	assert.Contains(t, stdout, id)
	assert.Contains(t, stdout, "cart")

	stdout, err = execute(t, "list", "--db", db, "--owner", "bob")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No snapshots found.")

	out := filepath.Join(dir, "loaded.dupe")
	_, err = execute(t, "load", id, "--db", db, "-o", out)
	require.NoError(t, err)
	want, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	stdout, err = execute(t, "delete", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted "+id)

	_, err = execute(t, "delete", id, "--db", db)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	_, err = execute(t, "load", id, "--db", db, "-o", out)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestList_JSONEmpty(t *testing.T) {
	stdout, err := execute(t, "list", "--db", filepath.Join(t.TempDir(), "lib.db"), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   []any  `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}
