package packager

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/oshokin/minnow-bundle/internal/config"
	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/service/toolrunner"
)

// archiveRunner simulates cargo producing the binary and windeployqt adding Qt libraries.
func archiveRunner(t *testing.T, root string) *fakeRunner {
	t.Helper()

	return &fakeRunner{
		onRun: func(command toolrunner.Command) error {
			switch command.Name {
			case "cargo":
				writeFile(t, filepath.Join(root, "target", "release", "MinnowSnap.exe"), "MZ")
			case "windeployqt":
				staged := command.Args[len(command.Args)-1]
				writeFile(t, filepath.Join(filepath.Dir(staged), "Qt6Core.dll"), "qt")
				writeFile(t, filepath.Join(filepath.Dir(staged), "platforms", "qwindows.dll"), "qt")
			}

			return nil
		},
	}
}

// zipNames lists the entry names of a zip archive.
func zipNames(t *testing.T, path string) []string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		_ = reader.Close()
	}()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}

	return names
}

// TestArchivePackager_Package runs the whole archive pipeline against fake tools.
func TestArchivePackager_Package(t *testing.T) {
	t.Parallel()

	root := newProject(t, "2.3.0")
	runner := archiveRunner(t, root)

	var progress bytes.Buffer

	artifact, err := NewArchive(newEnvironment(root, runner, &progress)).Package(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.3.0", artifact.Version)
	require.Equal(t, filepath.Join(root, "deploy", "minnowsnap-v2.3.0-portable.zip"), artifact.Path)

	require.Equal(t, []string{
		"MinnowSnap/MinnowSnap.exe",
		"MinnowSnap/Qt6Core.dll",
		"MinnowSnap/platforms/qwindows.dll",
		"MinnowSnap/qml/Main.qml",
		"MinnowSnap/qml/overlay/Overlay.qml",
		"MinnowSnap/resources/icons/tray.png",
	}, zipNames(t, artifact.Path))

	require.Equal(t, []string{"cargo", "windeployqt"}, runner.names())

	build := runner.commands[0]
	require.Equal(t, []string{"build", "--release"}, build.Args)
	require.Equal(t, root, build.Dir)
	require.False(t, build.Silent)

	deploy := runner.commands[1]
	require.True(t, deploy.Silent)
	require.Equal(t, []string{
		"--qmldir", filepath.Join(root, "qml"),
		"--release", "--no-translations", "--no-compiler-runtime",
		filepath.Join(root, "deploy", "MinnowSnap", "MinnowSnap.exe"),
	}, deploy.Args)

	require.Equal(t,
		"    Building release binary (cargo)\n"+
			"   Deploying Qt dependencies (windeployqt)\n"+
			"     Copying resources\n"+
			"   Packaging minnowsnap-v2.3.0-portable.zip\n",
		progress.String())
}

// TestArchivePackager_RepeatedRunsDoNotAccumulate checks a second run starts from a clean output root.
func TestArchivePackager_RepeatedRunsDoNotAccumulate(t *testing.T) {
	t.Parallel()

	root := newProject(t, "2.3.0")
	env := newEnvironment(root, archiveRunner(t, root), &bytes.Buffer{})

	_, err := NewArchive(env).Package(context.Background())
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "deploy", "MinnowSnap", "stale.txt"), "stale")
	writeFile(t, filepath.Join(root, "Cargo.toml"), "version = \"2.4.0\"\n")

	artifact, err := NewArchive(env).Package(context.Background())
	require.NoError(t, err)
	require.NotContains(t, zipNames(t, artifact.Path), "MinnowSnap/stale.txt")

	entries, err := os.ReadDir(filepath.Join(root, "deploy"))
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	require.Equal(t, []string{"MinnowSnap", "minnowsnap-v2.4.0-portable.zip"}, names)
}

// TestArchivePackager_MissingBinary aborts before staging when the build produced nothing.
func TestArchivePackager_MissingBinary(t *testing.T) {
	t.Parallel()

	root := newProject(t, "2.3.0")
	runner := &fakeRunner{}

	_, err := NewArchive(newEnvironment(root, runner, &bytes.Buffer{})).Package(context.Background())
	require.ErrorIs(t, err, release.ErrMissingArtifact)
	require.ErrorContains(t, err, filepath.Join("target", "release", "MinnowSnap.exe"))
	require.Equal(t, []string{"cargo"}, runner.names())

	_, err = os.Stat(filepath.Join(root, "deploy"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestArchivePackager_BuildFailure stops right after a failing build.
func TestArchivePackager_BuildFailure(t *testing.T) {
	t.Parallel()

	root := newProject(t, "2.3.0")
	runner := &fakeRunner{onRun: toolFailure}

	_, err := NewArchive(newEnvironment(root, runner, &bytes.Buffer{})).Package(context.Background())
	require.ErrorIs(t, err, release.ErrExternalToolFailure)
	require.ErrorContains(t, err, "cargo build --release")
	require.Equal(t, []string{"cargo"}, runner.names())
}

// TestArchivePackager_DeployerFailure never copies resources or writes the archive.
func TestArchivePackager_DeployerFailure(t *testing.T) {
	t.Parallel()

	root := newProject(t, "2.3.0")
	build := archiveRunner(t, root)
	runner := &fakeRunner{
		onRun: func(command toolrunner.Command) error {
			if command.Name == "windeployqt" {
				return toolFailure(command)
			}

			return build.onRun(command)
		},
	}

	_, err := NewArchive(newEnvironment(root, runner, &bytes.Buffer{})).Package(context.Background())
	require.ErrorIs(t, err, release.ErrExternalToolFailure)
	require.Equal(t, []string{"cargo", "windeployqt"}, runner.names())

	_, err = os.Stat(filepath.Join(root, "deploy", "MinnowSnap", "qml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(filepath.Join(root, "deploy", "minnowsnap-v2.3.0-portable.zip"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestArchivePackager_TarXZ produces a tarball with the same entries.
func TestArchivePackager_TarXZ(t *testing.T) {
	t.Parallel()

	root := newProject(t, "2.3.0")
	env := newEnvironment(root, archiveRunner(t, root), &bytes.Buffer{})
	env.Config.Archive.Format = config.FormatTarXZ

	artifact, err := NewArchive(env).Package(context.Background())
	require.NoError(t, err)
	require.Equal(t, "minnowsnap-v2.3.0-portable.tar.xz", filepath.Base(artifact.Path))

	file, err := os.Open(artifact.Path)
	require.NoError(t, err)

	defer func() {
		_ = file.Close()
	}()

	xr, err := xz.NewReader(file)
	require.NoError(t, err)

	var names []string

	tr := tar.NewReader(xr)
	for {
		header, nextErr := tr.Next()
		if nextErr == io.EOF {
			break
		}

		require.NoError(t, nextErr)

		names = append(names, header.Name)
	}

	sort.Strings(names)
	require.Contains(t, names, "MinnowSnap/MinnowSnap.exe")
	require.Contains(t, names, "MinnowSnap/qml/overlay/Overlay.qml")
	require.Len(t, names, 6)
}

// TestWriteArchive_EntryNames covers relative names and the base-name fallback.
func TestWriteArchive_EntryNames(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, filepath.Join(base, "MinnowSnap", "a.txt"), "a")
	writeFile(t, filepath.Join(base, "MinnowSnap", "nested", "b.txt"), "b")

	dst := filepath.Join(base, "out.zip")

	count, err := WriteArchive(config.FormatZip, base, filepath.Join(base, "MinnowSnap"), dst)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, []string{"MinnowSnap/a.txt", "MinnowSnap/nested/b.txt"}, zipNames(t, dst))

	outside := t.TempDir()
	require.Equal(t, "b.txt", entryName(outside, filepath.Join(base, "MinnowSnap", "nested", "b.txt")))

	_, err = WriteArchive("rar", base, base, filepath.Join(base, "out.rar"))
	require.ErrorIs(t, err, errUnknownArchiveFormat)
}
