package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/minnow-bundle/internal/logger"
)

// Config holds every tunable of a bundling run. Defaults reproduce the
// MinnowSnap release layout.
type Config struct {
	// Product names the application being bundled.
	Product ProductConfig `koanf:"product" yaml:"product"`
	// Paths are relative to the project root unless absolute.
	Paths PathsConfig `koanf:"paths" yaml:"paths"`
	// Archive configures the portable archive pipeline (Windows).
	Archive ArchiveConfig `koanf:"archive" yaml:"archive"`
	// DiskImage configures the disk-image pipeline (macOS).
	DiskImage DiskImageConfig `koanf:"disk_image" yaml:"disk_image"`
	// Release configures the release description sidecar.
	Release ReleaseConfig `koanf:"release" yaml:"release"`
	// Preflight configures checks run before the build.
	Preflight PreflightConfig `koanf:"preflight" yaml:"preflight"`
	// Log configures diagnostics verbosity.
	Log LogConfig `koanf:"log" yaml:"log"`
}

// ProductConfig names the product.
type ProductConfig struct {
	// Name is the executable, bundle and disk-image base name.
	Name string `koanf:"name" yaml:"name"`
	// Slug is the lowercase prefix of the portable archive name.
	Slug string `koanf:"slug" yaml:"slug"`
}

// PathsConfig locates the inputs and outputs of a run.
type PathsConfig struct {
	Manifest    string `koanf:"manifest" yaml:"manifest"`
	BuildOutput string `koanf:"build_output" yaml:"build_output"`
	// Output is the output root; it is deleted at the start of every run.
	Output     string `koanf:"output" yaml:"output"`
	UIAssets   string `koanf:"ui_assets" yaml:"ui_assets"`
	Resources  string `koanf:"resources" yaml:"resources"`
	VolumeIcon string `koanf:"volume_icon" yaml:"volume_icon"`
}

// ArchiveConfig configures the portable archive pipeline.
type ArchiveConfig struct {
	// Build is the command line producing the release binary.
	Build string `koanf:"build" yaml:"build"`
	// Deployer is the GUI dependency deployer executable.
	Deployer string `koanf:"deployer" yaml:"deployer"`
	// DeployerFlags are passed to the deployer before the target binary.
	DeployerFlags string `koanf:"deployer_flags" yaml:"deployer_flags"`
	// Format is the archive format, FormatZip or FormatTarXZ.
	Format string `koanf:"format" yaml:"format"`
}

// Point is a pair of screen coordinates or dimensions.
type Point struct {
	X int `koanf:"x" yaml:"x"`
	Y int `koanf:"y" yaml:"y"`
}

// DiskImageConfig configures the disk-image pipeline.
type DiskImageConfig struct {
	Build string `koanf:"build" yaml:"build"`
	// BundleDir is where the build places the .app, relative to the build output.
	BundleDir   string `koanf:"bundle_dir" yaml:"bundle_dir"`
	Deployer    string `koanf:"deployer" yaml:"deployer"`
	Tool        string `koanf:"tool" yaml:"tool"`
	InstallHint string `koanf:"install_hint" yaml:"install_hint"`
	VolumeName  string `koanf:"volume_name" yaml:"volume_name"`
	WindowPos   Point  `koanf:"window_pos" yaml:"window_pos"`
	WindowSize  Point  `koanf:"window_size" yaml:"window_size"`
	IconSize    int    `koanf:"icon_size" yaml:"icon_size"`
	AppIconPos  Point  `koanf:"app_icon_pos" yaml:"app_icon_pos"`
	DropLinkPos Point  `koanf:"drop_link_pos" yaml:"drop_link_pos"`
}

// ReleaseConfig configures the release description written next to the artifact.
type ReleaseConfig struct {
	Describe bool `koanf:"describe" yaml:"describe"`
}

// PreflightConfig configures checks run before the build.
type PreflightConfig struct {
	// CheckRunning refuses to bundle while the product executable is running.
	CheckRunning bool `koanf:"check_running" yaml:"check_running"`
}

// LogConfig configures the diagnostics logger.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

const (
	// DefaultConfigFilename is looked up in the project root when no config path is given.
	DefaultConfigFilename = "bundle.yaml"

	// DefaultFilePermissions is used for files written by the bundler.
	DefaultFilePermissions = 0o644

	// FormatZip produces a .zip archive.
	FormatZip = "zip"
	// FormatTarXZ produces a .tar.xz archive.
	FormatTarXZ = "tar.xz"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errFieldRequired is returned when a mandatory setting is empty.
	errFieldRequired = errors.New("setting must be provided")
	// errUnknownFormat is returned for unsupported archive formats.
	errUnknownFormat = errors.New("unknown archive format")
	// errUnsafeOutput is returned when deleting the output root would delete the project.
	errUnsafeOutput = errors.New("output root must not contain the project root")
	// errInvalidLogLevel is returned for unparseable log levels.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Product: ProductConfig{
			Name: "MinnowSnap",
			Slug: "minnowsnap",
		},
		Paths: PathsConfig{
			Manifest:    "Cargo.toml",
			BuildOutput: filepath.Join("target", "release"),
			Output:      "deploy",
			UIAssets:    "qml",
			Resources:   "resources",
			VolumeIcon:  filepath.Join("assets_icons", "icon.icns"),
		},
		Archive: ArchiveConfig{
			Build:         "cargo build --release",
			Deployer:      "windeployqt",
			DeployerFlags: "--release --no-translations --no-compiler-runtime",
			Format:        FormatZip,
		},
		DiskImage: DiskImageConfig{
			Build:       "cargo bundle --release",
			BundleDir:   filepath.Join("bundle", "osx"),
			Deployer:    "macdeployqt",
			Tool:        "create-dmg",
			InstallHint: "brew install create-dmg",
			VolumeName:  "MinnowSnap Installer",
			WindowPos:   Point{X: 200, Y: 120},
			WindowSize:  Point{X: 600, Y: 400},
			IconSize:    100,
			AppIconPos:  Point{X: 175, Y: 190},
			DropLinkPos: Point{X: 425, Y: 190},
		},
		Release: ReleaseConfig{
			Describe: true,
		},
		Preflight: PreflightConfig{
			CheckRunning: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Validate checks required fields and refuses an output root that would
// delete the project when cleared. projectRoot may be empty to skip that check.
func Validate(cfg *Config, projectRoot string) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	required := []struct {
		key   string
		value string
	}{
		{"product.name", cfg.Product.Name},
		{"product.slug", cfg.Product.Slug},
		{"paths.manifest", cfg.Paths.Manifest},
		{"paths.build_output", cfg.Paths.BuildOutput},
		{"paths.output", cfg.Paths.Output},
		{"paths.ui_assets", cfg.Paths.UIAssets},
		{"archive.build", cfg.Archive.Build},
		{"archive.deployer", cfg.Archive.Deployer},
		{"disk_image.build", cfg.DiskImage.Build},
		{"disk_image.deployer", cfg.DiskImage.Deployer},
		{"disk_image.tool", cfg.DiskImage.Tool},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s: %w", field.key, errFieldRequired)
		}
	}

	switch cfg.Archive.Format {
	case FormatZip, FormatTarXZ:
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, cfg.Archive.Format)
	}

	if _, ok := logger.ParseLogLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	if projectRoot == "" {
		return nil
	}

	return validateOutput(projectRoot, ResolvePath(projectRoot, cfg.Paths.Output))
}

// validateOutput ensures output is neither the project root nor one of its ancestors.
func validateOutput(projectRoot, output string) error {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve output root: %w", err)
	}

	rel, err := filepath.Rel(out, root)
	if err != nil {
		return nil //nolint:nilerr // Different volumes cannot contain each other.
	}

	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", errUnsafeOutput, out)
	}

	return nil
}

// ResolvePath joins a relative configured path onto the project root.
func ResolvePath(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(projectRoot, path)
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg, ""); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}
