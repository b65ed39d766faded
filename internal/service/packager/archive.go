package packager

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/logger"
	"github.com/oshokin/minnow-bundle/internal/repository/staging"
	"github.com/oshokin/minnow-bundle/internal/service/toolrunner"
)

// ArchivePackager builds the portable archive on Windows hosts.
type ArchivePackager struct {
	env *Environment
}

// NewArchive creates an ArchivePackager.
func NewArchive(env *Environment) *ArchivePackager {
	return &ArchivePackager{env: env}
}

// Package runs the archive pipeline:
// 1) Build the release binary.
// 2) Verify the binary exists.
// 3) Copy it into a fresh staging tree.
// 4) Deploy the Qt runtime next to the staged binary.
// 5) Copy the UI assets and extra resources.
// 6) Name the archive after the manifest version.
// 7) Compress the staging tree.
func (p *ArchivePackager) Package(ctx context.Context) (*Artifact, error) {
	var (
		env = p.env
		cfg = env.Config
	)

	ctx = logger.WithName(ctx, "archive")

	if err := p.build(ctx); err != nil {
		return nil, err
	}

	executable := release.FamilyArchive.ExecutableName(cfg.Product.Name)
	binary := filepath.Join(env.path(cfg.Paths.BuildOutput), executable)

	if err := requireExists(binary); err != nil {
		return nil, err
	}

	outputRoot, bundleDir, err := staging.NewManager(env.path(cfg.Paths.Output)).Prepare(cfg.Product.Name)
	if err != nil {
		return nil, fmt.Errorf("prepare staging tree: %w", err)
	}

	stagedBinary := filepath.Join(bundleDir, executable)
	if err = staging.CopyFile(binary, stagedBinary); err != nil {
		return nil, fmt.Errorf("stage binary: %w", err)
	}

	logger.DebugKV(ctx, "Staged binary", "source", binary, "destination", stagedBinary)

	if err = p.deploy(ctx, stagedBinary); err != nil {
		return nil, err
	}

	env.Console.Action("Copying", "resources")

	stager := staging.NewStager(env.path(cfg.Paths.UIAssets), env.path(cfg.Paths.Resources))
	if err = stager.StageResources(bundleDir); err != nil {
		return nil, fmt.Errorf("stage resources: %w", err)
	}

	version, err := env.resolveVersion(ctx)
	if err != nil {
		return nil, err
	}

	name := release.ArchiveName(cfg.Product.Slug, version, cfg.Archive.Format)
	archivePath := filepath.Join(outputRoot, name)

	env.Console.Action("Packaging", name)

	count, err := WriteArchive(cfg.Archive.Format, outputRoot, bundleDir, archivePath)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	logger.InfoKV(ctx, "Archive written", "path", archivePath, "files", count)

	return &Artifact{
		Path:    archivePath,
		Version: version,
	}, nil
}

// build runs the configured build command with live output.
func (p *ArchivePackager) build(ctx context.Context) error {
	line := p.env.Config.Archive.Build

	name, _, err := toolrunner.SplitCommand(line)
	if err != nil {
		return fmt.Errorf("build command: %w", err)
	}

	p.env.Console.Actionf("Building", "release binary (%s)", name)

	if err = p.env.run(ctx, line, false); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	return nil
}

// deploy runs the Qt deployer silently against the staged binary.
func (p *ArchivePackager) deploy(ctx context.Context, stagedBinary string) error {
	cfg := p.env.Config

	flags, err := toolrunner.SplitArgs(cfg.Archive.DeployerFlags)
	if err != nil {
		return fmt.Errorf("deployer flags: %w", err)
	}

	p.env.Console.Actionf("Deploying", "Qt dependencies (%s)", cfg.Archive.Deployer)

	args := make([]string, 0, len(flags)+3)
	args = append(args, "--qmldir", p.env.path(cfg.Paths.UIAssets))
	args = append(args, flags...)
	args = append(args, stagedBinary)

	err = p.env.Runner.Run(ctx, toolrunner.Command{
		Name:   cfg.Archive.Deployer,
		Args:   args,
		Dir:    p.env.ProjectRoot,
		Silent: true,
	})
	if err != nil {
		return fmt.Errorf("deploy dependencies: %w", err)
	}

	return nil
}
