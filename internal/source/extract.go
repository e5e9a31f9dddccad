package source

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ExtractError reports a malformed or truncated archive. The destination
// directory may hold a partial extraction; callers must not assume
// atomicity.
type ExtractError struct {
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract failed: %v", e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Extract unpacks a gzip tarball into destDir, stripping the single leading
// path segment every package carries so files land directly under destDir.
func Extract(archive []byte, destDir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return &ExtractError{Err: err}
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &ExtractError{Err: err}
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ExtractError{Err: err}
		}

		name, ok := stripRoot(hdr.Name)
		if !ok {
			continue // the root directory entry itself
		}
		if !filepath.IsLocal(name) {
			return &ExtractError{Err: fmt.Errorf("archive entry escapes destination: %q", hdr.Name)}
		}
		target := filepath.Join(destDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &ExtractError{Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return &ExtractError{Err: err}
			}
			if err := writeEntry(target, tr); err != nil {
				return &ExtractError{Err: err}
			}
		}
	}
}

// stripRoot removes the first path segment. ok is false when the entry is
// the root segment itself.
func stripRoot(name string) (string, bool) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	idx := strings.IndexByte(name, '/')
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimPrefix(name[idx+1:], "/")
	if rest == "" {
		return "", false
	}
	return rest, true
}

func writeEntry(target string, r io.Reader) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
