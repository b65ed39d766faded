package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/oshokin/minnow-bundle/internal/config"
	"github.com/oshokin/minnow-bundle/internal/console"
	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/logger"
	"github.com/oshokin/minnow-bundle/internal/service/packager"
	"github.com/oshokin/minnow-bundle/internal/service/preflight"
	"github.com/oshokin/minnow-bundle/internal/service/toolrunner"
)

var errInvalidLogLevel = errors.New("invalid log level")

// Options are inputs accepted by the bundler entry point.
// Zero values select the real host: runtime.GOOS, os/exec, the system path,
// the process table, os.Stdout/os.Stderr and time.Now.
type Options struct {
	// ProjectRoot is the source tree to bundle; empty means the working directory.
	ProjectRoot string
	// ConfigPath is the optional path to a YAML or TOML settings file.
	ConfigPath string
	// LogLevel overrides log.level from the configuration when set.
	LogLevel string
	// GOOS is the host platform name.
	GOOS string
	// Runner executes external tools.
	Runner toolrunner.Runner
	// LookPath locates a tool on the system path.
	LookPath func(file string) (string, error)
	// ProcessLister lists running processes for the preflight check.
	ProcessLister preflight.ProcessLister
	// Environ supplies BUNDLE_* overrides.
	Environ func() []string
	// Stdout receives progress lines and tool output.
	Stdout io.Writer
	// Stderr receives tool diagnostics.
	Stderr io.Writer
	// Now stamps the release description.
	Now func() time.Time
}

// Result describes a finished run.
type Result struct {
	// Family is the platform family that was bundled.
	Family release.Family
	// Artifact is the produced archive or disk image.
	Artifact *packager.Artifact
	// DescriptionPath is the release description sidecar, empty when disabled.
	DescriptionPath string
}

// driver holds the resolved state of a single bundling run.
type driver struct {
	opts    *Options
	cfg     *config.Config
	family  release.Family
	console *console.Printer
}

// Run executes one bundling run and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "bundler")

	d, err := newDriver(ctx, opts)
	if err != nil {
		return nil, err
	}

	result, err := d.run(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Bundling failed", "error", err)

		return nil, err
	}

	logger.InfoKV(ctx, "Bundling completed", "artifact", result.Artifact.Path)

	return result, nil
}

// newDriver fills option defaults, loads configuration and applies the log level.
func newDriver(ctx context.Context, opts *Options) (*driver, error) {
	o := withDefaults(opts)

	root, err := projectRoot(o.ProjectRoot)
	if err != nil {
		return nil, err
	}

	o.ProjectRoot = root

	cfg, err := config.Load(root, o.ConfigPath, config.WithEnviron(o.Environ))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if o.LogLevel != "" {
		level = o.LogLevel
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errInvalidLogLevel, level)
	}

	logger.SetLevel(parsed)
	logger.DebugKV(ctx, "Configuration loaded",
		"project_root", root,
		"config", o.ConfigPath,
		"goos", o.GOOS,
	)

	return &driver{
		opts:    o,
		cfg:     cfg,
		family:  release.DetectFamily(o.GOOS),
		console: console.New(o.Stdout, o.Stderr),
	}, nil
}

// run performs the stages in order; the first failure stops the run.
func (d *driver) run(ctx context.Context) (*Result, error) {
	if d.family == release.FamilyUnsupported {
		return nil, fmt.Errorf("%w: %s", release.ErrUnsupportedPlatform, d.opts.GOOS)
	}

	ctx = logger.WithKV(ctx, "family", d.family.String())

	if d.cfg.Preflight.CheckRunning {
		executable := d.family.ExecutableName(d.cfg.Product.Name)

		err := preflight.EnsureNotRunning(ctx, d.opts.ProcessLister, executable)
		if err != nil {
			return nil, fmt.Errorf("preflight: %w", err)
		}
	}

	p, err := packager.New(d.family, &packager.Environment{
		ProjectRoot: d.opts.ProjectRoot,
		Config:      d.cfg,
		Runner:      d.opts.Runner,
		LookPath:    d.opts.LookPath,
		Console:     d.console,
	})
	if err != nil {
		return nil, err
	}

	artifact, err := p.Package(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Family:   d.family,
		Artifact: artifact,
	}

	if d.cfg.Release.Describe {
		result.DescriptionPath, err = packager.Describe(artifact, d.cfg.Product.Name, d.family, d.opts.Now())
		if err != nil {
			return nil, fmt.Errorf("describe release: %w", err)
		}
	}

	d.console.Actionf("Finished", "output: %s", artifact.Path)

	return result, nil
}

// withDefaults returns a copy of opts with every unset dependency pointing at the real host.
func withDefaults(opts *Options) *Options {
	o := &Options{}
	if opts != nil {
		*o = *opts
	}

	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}

	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}

	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}

	if o.Runner == nil {
		o.Runner = toolrunner.New(o.Stdout, o.Stderr)
	}

	if o.LookPath == nil {
		o.LookPath = toolrunner.LookPath
	}

	if o.ProcessLister == nil {
		o.ProcessLister = preflight.SystemProcesses
	}

	if o.Environ == nil {
		o.Environ = os.Environ
	}

	if o.Now == nil {
		o.Now = time.Now
	}

	return o
}

// projectRoot makes root absolute, defaulting to the working directory.
func projectRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}

	return abs, nil
}
