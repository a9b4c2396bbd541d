package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/portshim/internal/sentinel"
)

// ErrIsDirectory is returned when a path that must name a file names an
// existing directory.
const ErrIsDirectory = sentinel.Error("path is a directory")

// dirMode is used for directories created by EnsureParentDir.
const dirMode = 0o755

// EnsureParentDir prepares path for creation as a regular file: it creates
// the parent directory (and its parents) if missing and fails with
// ErrIsDirectory if path itself is an existing directory. An existing file at
// path is left alone.
func EnsureParentDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
