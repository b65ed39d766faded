package packager

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/oshokin/minnow-bundle/internal/config"
	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/logger"
	"github.com/oshokin/minnow-bundle/internal/repository/staging"
	"github.com/oshokin/minnow-bundle/internal/service/toolrunner"
)

// DiskImagePackager builds the installer disk image on macOS hosts.
type DiskImagePackager struct {
	env *Environment
}

// NewDiskImage creates a DiskImagePackager.
func NewDiskImage(env *Environment) *DiskImagePackager {
	return &DiskImagePackager{env: env}
}

// Package runs the disk-image pipeline:
// 1) Build the application bundle.
// 2) Verify the bundle exists.
// 3) Deploy the Qt runtime into the bundle in place.
// 4) Recreate the output root.
// 5) Name the image after the manifest version.
// 6) Verify the disk-image tool is installed.
// 7) Run it with the window layout and optional volume icon.
func (p *DiskImagePackager) Package(ctx context.Context) (*Artifact, error) {
	var (
		env = p.env
		cfg = env.Config
	)

	ctx = logger.WithName(ctx, "disk-image")

	name, args, err := toolrunner.SplitCommand(cfg.DiskImage.Build)
	if err != nil {
		return nil, fmt.Errorf("build command: %w", err)
	}

	// "cargo bundle --release" is shown as "cargo bundle".
	if len(args) > 0 {
		name += " " + args[0]
	}

	env.Console.Actionf("Building", "bundle (%s)", name)

	if err = env.run(ctx, cfg.DiskImage.Build, false); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	bundle := filepath.Join(
		env.path(cfg.Paths.BuildOutput),
		cfg.DiskImage.BundleDir,
		release.BundleName(cfg.Product.Name),
	)

	if err = requireExists(bundle); err != nil {
		return nil, err
	}

	env.Console.Actionf("Deploying", "Qt dependencies (%s)", cfg.DiskImage.Deployer)

	err = env.Runner.Run(ctx, toolrunner.Command{
		Name:   cfg.DiskImage.Deployer,
		Args:   []string{bundle, "-qmldir=" + env.path(cfg.Paths.UIAssets)},
		Dir:    env.ProjectRoot,
		Silent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy dependencies: %w", err)
	}

	outputRoot, err := staging.NewManager(env.path(cfg.Paths.Output)).Reset()
	if err != nil {
		return nil, fmt.Errorf("prepare output root: %w", err)
	}

	version, err := env.resolveVersion(ctx)
	if err != nil {
		return nil, err
	}

	imagePath := filepath.Join(outputRoot, release.DiskImageName(cfg.Product.Name, version))

	env.Console.Actionf("Packaging", "DMG installer (%s)", cfg.DiskImage.Tool)

	if _, err = env.LookPath(cfg.DiskImage.Tool); err != nil {
		return nil, fmt.Errorf("%w: %s not found, please install it (%s)",
			release.ErrMissingDependencyTool, cfg.DiskImage.Tool, cfg.DiskImage.InstallHint)
	}

	volumeIcon := env.path(cfg.Paths.VolumeIcon)
	if !fileExists(volumeIcon) {
		logger.DebugKV(ctx, "Volume icon not found, skipping", "path", volumeIcon)

		volumeIcon = ""
	}

	err = env.Runner.Run(ctx, toolrunner.Command{
		Name: cfg.DiskImage.Tool,
		Args: DiskImageArgs(&cfg.DiskImage, cfg.Product.Name, imagePath, bundle, volumeIcon),
		Dir:  env.ProjectRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("create disk image: %w", err)
	}

	return &Artifact{
		Path:    imagePath,
		Version: version,
	}, nil
}

// DiskImageArgs builds the create-dmg arguments. When volumeIcon is not empty,
// "--volicon <icon>" leads the list.
func DiskImageArgs(cfg *config.DiskImageConfig, product, imagePath, bundle, volumeIcon string) []string {
	app := release.BundleName(product)

	args := make([]string, 0, 24)

	if volumeIcon != "" {
		args = append(args, "--volicon", volumeIcon)
	}

	args = append(args,
		"--volname", cfg.VolumeName,
		"--window-pos", itoa(cfg.WindowPos.X), itoa(cfg.WindowPos.Y),
		"--window-size", itoa(cfg.WindowSize.X), itoa(cfg.WindowSize.Y),
		"--icon-size", itoa(cfg.IconSize),
		"--icon", app, itoa(cfg.AppIconPos.X), itoa(cfg.AppIconPos.Y),
		"--hide-extension", app,
		"--app-drop-link", itoa(cfg.DropLinkPos.X), itoa(cfg.DropLinkPos.Y),
		imagePath,
		bundle,
	)

	return args
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
