package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
)

const versionKey = "version"

// ResolveVersion returns the value of the first `version = "X.Y.Z"` line in the
// manifest at path. When no such line exists it returns release.FallbackVersion
// and fallback=true instead of failing. Only I/O errors are reported.
func ResolveVersion(path string) (version string, fallback bool, err error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", false, fmt.Errorf("open manifest: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	// Lines have no length limit.
	reader := bufio.NewReader(file)

	for {
		line, readErr := reader.ReadString('\n')

		if value, ok := parseVersionLine(line); ok {
			return value, false, nil
		}

		if errors.Is(readErr, io.EOF) {
			return release.FallbackVersion, true, nil
		}

		if readErr != nil {
			return "", false, fmt.Errorf("read manifest: %w", readErr)
		}
	}
}

// parseVersionLine extracts the value from a `version = "..."` line.
func parseVersionLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, versionKey) {
		return "", false
	}

	_, value, found := strings.Cut(trimmed, "=")
	if !found {
		return "", false
	}

	value = strings.TrimSpace(value)

	// A quoted value ends at its closing quote, which drops trailing comments.
	if rest, ok := strings.CutPrefix(value, `"`); ok {
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			return rest[:end], true
		}

		return strings.TrimSpace(rest), true
	}

	return strings.Trim(value, `"`), true
}
