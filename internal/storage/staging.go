// Package storage manages the on-disk staging area for uploaded audio.
//
// Every staged payload gets its own uniquely named file; callers own that
// file and must Remove it once the request that staged it is finished.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Staging is a directory holding per-request temporary files.
type Staging struct {
	root string // absolute path to the staging directory
}

// NewStaging creates the staging directory if needed and returns a Staging
// rooted at it.
func NewStaging(root string) (*Staging, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("storage: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Staging{root: abs}, nil
}

// Root returns the absolute staging directory.
func (s *Staging) Root() string {
	return s.root
}

// Stage copies r into a new file named <uuid><ext> and returns its absolute
// path and size. The copy goes through a temp file, fsync and rename, so a
// staged path never refers to a partially written payload. On failure
// nothing is left behind.
func (s *Staging) Stage(r io.Reader, ext string) (string, int64, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext, `/\`) {
		return "", 0, fmt.Errorf("storage: invalid extension %q", ext)
	}

	tmp, err := os.CreateTemp(s.root, ".stage-*")
	if err != nil {
		return "", 0, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		return "", 0, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", 0, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: close temp: %w", err)
	}

	final := filepath.Join(s.root, uuid.NewString()+ext)
	if err := os.Rename(tmpName, final); err != nil {
		return "", 0, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return final, written, nil
}

// Remove deletes a staged file. Paths outside the staging directory are
// rejected; a file that is already gone is not an error.
func (s *Staging) Remove(path string) error {
	abs, err := s.contained(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// Purge removes every file left in the staging directory and returns how
// many were deleted. It runs at startup and shutdown to sweep leftovers of
// a crashed process.
func (s *Staging) Purge() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("storage: read root: %w", err)
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// contained resolves path and rejects anything that escapes the root.
func (s *Staging) contained(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes staging root: %s", path)
	}
	return abs, nil
}
