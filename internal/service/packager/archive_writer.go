package packager

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"

	"github.com/oshokin/minnow-bundle/internal/config"
)

var errUnknownArchiveFormat = errors.New("unknown archive format")

// archiveEntry is one regular file scheduled for the archive.
type archiveEntry struct {
	// path is the file on disk.
	path string
	// name is the path inside the archive, slash-separated.
	name string
	info fs.FileInfo
}

// WriteArchive writes every regular file under srcDir into dst using format.
// Entry names are relative to baseDir. It returns the number of files written.
// A partially written archive is removed on failure.
func WriteArchive(format, baseDir, srcDir, dst string) (int, error) {
	entries, err := collectEntries(baseDir, srcDir)
	if err != nil {
		return 0, err
	}

	var write func(io.Writer, []archiveEntry) error

	switch format {
	case config.FormatZip:
		write = writeZip
	case config.FormatTarXZ:
		write = writeTarXZ
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownArchiveFormat, format)
	}

	file, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return 0, err
	}

	err = write(file, entries)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(dst)

		return 0, err
	}

	return len(entries), nil
}

// collectEntries walks srcDir in lexical order and names each regular file
// relative to baseDir, falling back to the bare file name for paths outside it.
func collectEntries(baseDir, srcDir string) ([]archiveEntry, error) {
	var entries []archiveEntry

	err := filepath.WalkDir(srcDir, func(path string, _ fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		entries = append(entries, archiveEntry{
			path: path,
			name: entryName(baseDir, path),
			info: info,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", srcDir, err)
	}

	return entries, nil
}

// entryName returns path relative to baseDir with forward slashes.
func entryName(baseDir, path string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}

	return filepath.ToSlash(rel)
}

// writeZip writes a DEFLATE-compressed zip archive.
func writeZip(w io.Writer, entries []archiveEntry) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	for _, entry := range entries {
		header, err := zip.FileInfoHeader(entry.info)
		if err != nil {
			return err
		}

		header.Name = entry.name
		header.Method = zip.Deflate

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		if err = copyFrom(dst, entry.path); err != nil {
			return err
		}
	}

	return zw.Close()
}

// writeTarXZ writes an xz-compressed tarball.
func writeTarXZ(w io.Writer, entries []archiveEntry) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(xw)

	for _, entry := range entries {
		var header *tar.Header

		header, err = tar.FileInfoHeader(entry.info, "")
		if err != nil {
			return err
		}

		header.Name = entry.name

		if err = tw.WriteHeader(header); err != nil {
			return err
		}

		if err = copyFrom(tw, entry.path); err != nil {
			return err
		}
	}

	if err = tw.Close(); err != nil {
		return err
	}

	return xw.Close()
}

// copyFrom streams the file at path into w.
func copyFrom(w io.Writer, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err = io.Copy(w, file); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}

	return nil
}
