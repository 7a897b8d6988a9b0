package cli

// Test Plan for extract:
// - executeExtract writes the model document with natures, order and diagnostics
// - --out - prints the model on stdout and suppresses progress
// - --db records the run in a snapshot; --keep prunes older runs
// - output.model from .typelink/config.yml is resolved against the root
// - an invalid configuration fails before any output is written
// - rootDirFromArgs defaults to the working directory and rejects files
// - outputPath prefers flags over configured paths

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/config"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/resolve"
	"github.com/mvp-joe/typelink/internal/storage"
)

const fixtureCrate = "../../testdata/rust/crate"

// decodedModel mirrors Model with natures kept as raw JSON.
type decodedModel struct {
	Version     string                     `json:"version"`
	RunID       string                     `json:"run_id"`
	Root        string                     `json:"root"`
	Files       []string                   `json:"files"`
	Natures     map[string]json.RawMessage `json:"natures"`
	Order       []string                   `json:"order"`
	Unresolved  []resolve.Unresolved       `json:"unresolved"`
	Cycles      [][]string                 `json:"cycles"`
	Diagnostics []analyzer.Diagnostic      `json:"diagnostics"`
}

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(fixtureCrate)
	require.NoError(t, err)
	return root
}

func readModel(t *testing.T, path string) decodedModel {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m decodedModel
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// writeCrate lays out files (relative path -> content) under a fresh root.
func writeCrate(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestExecuteExtract_WritesModel(t *testing.T) {
	t.Parallel()

	root := fixtureRoot(t)
	out := filepath.Join(t.TempDir(), "model.json")
	var stdout, stderr bytes.Buffer

	err := executeExtract(context.Background(), root, extractOptions{out: out}, &stdout, &stderr)
	require.NoError(t, err)

	m := readModel(t, out)
	assert.Equal(t, ModelVersion, m.Version)
	assert.NotEmpty(t, m.RunID)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, []string{"src/broken.rs", "src/cycle.rs", "src/lib.rs", "src/nested/extra.rs"}, m.Files)
	assert.Len(t, m.Natures, 9)
	assert.Len(t, m.Order, 9)
	assert.Contains(t, m.Unresolved, resolve.Unresolved{From: "Link", Ref: "Unknown"})
	assert.Contains(t, m.Cycles, []string{"Link", "Node"})

	require.Len(t, m.Diagnostics, 1)
	assert.Equal(t, "Coords", m.Diagnostics[0].Item)

	var decl struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(m.Natures["Config"], &decl))
	assert.Equal(t, "struct", decl.Kind)
	assert.Equal(t, "Config", decl.Name)

	// Dependencies come first.
	assert.Less(t, indexOf(m.Order, "Config"), indexOf(m.Order, "Session"))

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Extraction complete")
	assert.Contains(t, stderr.String(), "skipped src/broken.rs:2:1")
}

func TestExecuteExtract_Stdout(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := executeExtract(context.Background(), fixtureRoot(t), extractOptions{out: "-"}, &stdout, &stderr)
	require.NoError(t, err)

	var m decodedModel
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &m))
	assert.Contains(t, m.Natures, "handshake")
	assert.Empty(t, stderr.String())
}

func TestExecuteExtract_Snapshot(t *testing.T) {
	t.Parallel()

	root := fixtureRoot(t)
	dir := t.TempDir()
	opts := extractOptions{
		out:   filepath.Join(dir, "model.json"),
		db:    filepath.Join(dir, "typelink.db"),
		keep:  1,
		quiet: true,
	}
	var stdout, stderr bytes.Buffer

	require.NoError(t, executeExtract(context.Background(), root, opts, &stdout, &stderr))
	require.NoError(t, executeExtract(context.Background(), root, opts, &stdout, &stderr))

	store, err := storage.Open(opts.db)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, readModel(t, opts.out).RunID, runs[0].ID)
	assert.Equal(t, 9, runs[0].EntryCount)

	enums, err := store.Entries(runs[0].ID, "enum")
	require.NoError(t, err)
	require.Len(t, enums, 2)
	assert.Equal(t, "Event", enums[0].Name)
	assert.Equal(t, "Status", enums[1].Name)
	assert.True(t, enums[1].Flat)

	assert.Empty(t, stderr.String())
}

func TestExecuteExtract_ConfiguredOutput(t *testing.T) {
	t.Parallel()

	root := writeCrate(t, map[string]string{
		"src/lib.rs":           "#[typelink]\nstruct Point { x: u8 }\n",
		".typelink/config.yml": "output:\n  model: gen/types.json\n",
	})
	var stdout, stderr bytes.Buffer

	require.NoError(t, executeExtract(context.Background(), root, extractOptions{quiet: true}, &stdout, &stderr))

	m := readModel(t, filepath.Join(root, "gen", "types.json"))
	assert.Equal(t, []string{"Point"}, m.Order)
	assert.Empty(t, m.Diagnostics)
}

func TestExecuteExtract_InvalidConfig(t *testing.T) {
	t.Parallel()

	root := writeCrate(t, map[string]string{
		"src/lib.rs":           "#[typelink]\nstruct Point { x: u8 }\n",
		".typelink/config.yml": "paths:\n  include: ['{a,b']\n",
	})
	out := filepath.Join(t.TempDir(), "model.json")
	var stdout, stderr bytes.Buffer

	err := executeExtract(context.Background(), root, extractOptions{out: out, quiet: true}, &stdout, &stderr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidPattern), "got %v", err)
	assert.NoFileExists(t, out)
}

func TestRootDirFromArgs(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	require.NoError(t, err)

	dir, err := rootDirFromArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, wd, dir)

	dir, err = rootDirFromArgs([]string{fixtureCrate})
	require.NoError(t, err)
	assert.Equal(t, fixtureRoot(t), dir)

	_, err = rootDirFromArgs([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	_, err = rootDirFromArgs([]string{filepath.Join(fixtureCrate, "src", "lib.rs")})
	assert.ErrorContains(t, err, "is not a directory")
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flag       string
		configured string
		want       string
	}{
		{"flag wins", "out.json", ".typelink/model.json", "out.json"},
		{"relative configured", "", ".typelink/model.json", filepath.Join("/crate", ".typelink/model.json")},
		{"absolute configured", "", "/tmp/model.json", "/tmp/model.json"},
		{"empty configured", "", "", ""},
		{"stdout flag", "-", ".typelink/model.json", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, outputPath("/crate", tt.flag, tt.configured))
		})
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
