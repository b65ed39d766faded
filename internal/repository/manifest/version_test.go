package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
)

// writeManifest creates a manifest with the given contents in a temp dir.
func writeManifest(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Cargo.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestResolveVersion checks extraction for well-formed and loosely formatted lines.
func TestResolveVersion(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		contents string
		want     string
	}{
		"plain": {
			contents: "[package]\nname = \"minnowsnap\"\nversion = \"2.3.0\"\n",
			want:     "2.3.0",
		},
		"indented": {
			contents: "[package]\n   version   =   \"1.0.5\"   \n",
			want:     "1.0.5",
		},
		"first line wins": {
			contents: "version = \"0.9.1\"\n[dependencies]\nversion = \"9.9.9\"\n",
			want:     "0.9.1",
		},
		"trailing comment": {
			contents: "version = \"3.1.4\" # bumped by release\n",
			want:     "3.1.4",
		},
		"no equals sign is skipped": {
			contents: "versioning\nversion = \"4.0.0\"\n",
			want:     "4.0.0",
		},
		"pre-release": {
			contents: "version = \"1.2.0-beta.1\"\r\n",
			want:     "1.2.0-beta.1",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, fallback, err := ResolveVersion(writeManifest(t, tc.contents))
			require.NoError(t, err)
			require.False(t, fallback)
			require.Equal(t, tc.want, got)
		})
	}
}

// TestResolveVersion_Fallback ensures a manifest without a version line yields 0.0.0.
func TestResolveVersion_Fallback(t *testing.T) {
	t.Parallel()

	got, fallback, err := ResolveVersion(writeManifest(t, "[package]\nname = \"minnowsnap\"\n"))
	require.NoError(t, err)
	require.True(t, fallback)
	require.Equal(t, release.FallbackVersion, got)
}

// TestResolveVersion_LongLines finds the version after lines longer than 64 KiB.
func TestResolveVersion_LongLines(t *testing.T) {
	t.Parallel()

	contents := "[package]\n" +
		"description = \"" + strings.Repeat("a", 70*1024) + "\"\n" +
		"version = \"2.3.0\"\n"

	got, fallback, err := ResolveVersion(writeManifest(t, contents))
	require.NoError(t, err)
	require.False(t, fallback)
	require.Equal(t, "2.3.0", got)
}

// TestResolveVersion_LastLineWithoutNewline reads a version on an unterminated final line.
func TestResolveVersion_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	got, fallback, err := ResolveVersion(writeManifest(t, "[package]\r\nversion = \"1.2.3\""))
	require.NoError(t, err)
	require.False(t, fallback)
	require.Equal(t, "1.2.3", got)
}

// TestResolveVersion_Missing verifies an unreadable manifest is reported as an error.
func TestResolveVersion_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := ResolveVersion(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
