package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
)

// Stager copies build outputs and resource directories into a staging tree.
type Stager struct {
	// uiAssetsDir is the required GUI resource-definition directory.
	uiAssetsDir string
	// resourcesDir is the optional extra resources directory.
	resourcesDir string
}

// NewStager creates a stager for the given source resource directories.
func NewStager(uiAssetsDir, resourcesDir string) *Stager {
	return &Stager{
		uiAssetsDir:  filepath.Clean(uiAssetsDir),
		resourcesDir: filepath.Clean(resourcesDir),
	}
}

// StageResources copies the UI assets directory and, when present, the extra
// resources directory into dir, keeping their base names.
func (s *Stager) StageResources(dir string) error {
	info, err := os.Stat(s.uiAssetsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", release.ErrMissingArtifact, s.uiAssetsDir)
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", s.uiAssetsDir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", release.ErrMissingArtifact, s.uiAssetsDir)
	}

	if err = CopyTree(s.uiAssetsDir, filepath.Join(dir, filepath.Base(s.uiAssetsDir))); err != nil {
		return fmt.Errorf("copy ui assets: %w", err)
	}

	info, err = os.Stat(s.resourcesDir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", s.resourcesDir, err)
	}

	if err = CopyTree(s.resourcesDir, filepath.Join(dir, filepath.Base(s.resourcesDir))); err != nil {
		return fmt.Errorf("copy resources: %w", err)
	}

	return nil
}

// CopyTree copies src into dst recursively. Existing directories are reused and
// existing files are overwritten. Symlinks are followed.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if entry.Type()&fs.ModeSymlink != 0 {
				return CopyTree(path, target)
			}

			return os.MkdirAll(target, DefaultDirMode)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return CopyFile(path, target)
	})
}

// CopyFile copies a regular file, preserving its permission bits and
// modification time. The destination is replaced if it exists.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	if err = os.MkdirAll(filepath.Dir(dst), DefaultDirMode); err != nil {
		return err
	}

	// Read-only destinations from a previous copy would reject O_TRUNC.
	if err = os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("copy %s: %w", src, err)
	}

	if err = out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
