package packager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/oshokin/minnow-bundle/internal/config"
	"github.com/oshokin/minnow-bundle/internal/console"
	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/logger"
	"github.com/oshokin/minnow-bundle/internal/repository/manifest"
	"github.com/oshokin/minnow-bundle/internal/service/toolrunner"
)

// Packager produces the final artifact for one platform family.
type Packager interface {
	Package(ctx context.Context) (*Artifact, error)
}

// Artifact is the result of a successful Package call.
type Artifact struct {
	// Path is the absolute or project-relative path of the produced file.
	Path string
	// Version is the manifest version the artifact is named after.
	Version string
}

// Environment carries everything a packager needs. It replaces process-wide
// path constants so a run can target any project root.
type Environment struct {
	// ProjectRoot is the read-only source tree root.
	ProjectRoot string
	// Config holds the resolved bundler settings.
	Config *config.Config
	// Runner executes external tools.
	Runner toolrunner.Runner
	// LookPath locates a tool on the system path.
	LookPath func(file string) (string, error)
	// Console prints progress lines.
	Console *console.Printer
}

// New returns the packager for family.
//
//nolint:ireturn // Callers only need the Package contract.
func New(family release.Family, env *Environment) (Packager, error) {
	switch family {
	case release.FamilyArchive:
		return NewArchive(env), nil
	case release.FamilyDiskImage:
		return NewDiskImage(env), nil
	case release.FamilyUnsupported:
		return nil, release.ErrUnsupportedPlatform
	default:
		return nil, release.ErrUnsupportedPlatform
	}
}

// path resolves a configured path against the project root.
func (e *Environment) path(p string) string {
	return config.ResolvePath(e.ProjectRoot, p)
}

// run parses a configured command line and executes it in the project root.
func (e *Environment) run(ctx context.Context, line string, silent bool) error {
	name, args, err := toolrunner.SplitCommand(line)
	if err != nil {
		return err
	}

	return e.Runner.Run(ctx, toolrunner.Command{
		Name:   name,
		Args:   args,
		Dir:    e.ProjectRoot,
		Silent: silent,
	})
}

// resolveVersion reads the manifest version, warning when the fallback is used.
func (e *Environment) resolveVersion(ctx context.Context) (string, error) {
	path := e.path(e.Config.Paths.Manifest)

	version, fallback, err := manifest.ResolveVersion(path)
	if err != nil {
		return "", fmt.Errorf("resolve version: %w", err)
	}

	if fallback {
		logger.WarnKV(ctx, "Manifest declares no version, using fallback",
			"manifest", path,
			"version", version,
		)
	}

	return version, nil
}

// requireExists reports a missing build output as release.ErrMissingArtifact.
func requireExists(path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s not found", release.ErrMissingArtifact, path)
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	return nil
}

// fileExists reports whether path exists as a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
