package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/nature"
	"github.com/mvp-joe/typelink/internal/resolve"
)

// ModelVersion is bumped when the layout of the model document changes.
const ModelVersion = "1"

// Model is the JSON document handed to code generators.
type Model struct {
	Version string   `json:"version"`
	RunID   string   `json:"run_id"`
	Root    string   `json:"root"`
	Files   []string `json:"files"`
	// Natures maps every registered name to its tagged JSON form.
	Natures map[string]nature.Nature `json:"natures"`
	// Order lists names with dependencies first.
	Order       []string              `json:"order"`
	Unresolved  []resolve.Unresolved  `json:"unresolved,omitempty"`
	Cycles      [][]string            `json:"cycles,omitempty"`
	Diagnostics []analyzer.Diagnostic `json:"diagnostics,omitempty"`
}

func buildModel(rootDir string, result *analyzer.Result) (*Model, error) {
	report, err := resolve.Resolve(result.Natures)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve references")
	}

	natures := make(map[string]nature.Nature, result.Natures.Len())
	for name, n := range result.Natures.All() {
		natures[name] = n
	}

	return &Model{
		Version:     ModelVersion,
		RunID:       result.RunID,
		Root:        rootDir,
		Files:       result.Files,
		Natures:     natures,
		Order:       report.Order,
		Unresolved:  report.Unresolved,
		Cycles:      report.Cycles,
		Diagnostics: result.Diagnostics,
	}, nil
}

func encodeModel(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// writeModel writes m to path through a temp file and a rename, so readers
// never see a partial document.
func writeModel(path string, m *Model) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	if err := encodeModel(tmp, m); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to encode model")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to write model")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to move model into place")
	}
	return nil
}
