package source

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// WriteResult records the outcome of writing a single build file.
type WriteResult struct {
	Build *Build
	Path  string
	Err   error
}

// Writer persists normalized builds into the game's Champions directory.
// Writes to distinct builds are independent and safe to run concurrently;
// re-writing the same build overwrites the prior file.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates a writer targeting dir, creating it if needed.
func NewWriter(dir string, log zerolog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{dir: dir, log: log.With().Str("component", "writer").Logger()}, nil
}

// Write stores one build as an item-set file. Failures are returned in the
// result, never propagated, so sibling writes are unaffected.
func (w *Writer) Write(build *Build) WriteResult {
	path := filepath.Join(w.dir, build.FileName+".json")

	data, err := json.MarshalIndent(build.Set, "", "  ")
	if err != nil {
		return WriteResult{Build: build, Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.log.Warn().Err(err).Str("file", build.FileName).Msg("build write failed")
		return WriteResult{Build: build, Path: path, Err: err}
	}

	w.log.Debug().Str("file", build.FileName).Msg("build written")
	return WriteResult{Build: build, Path: path}
}
