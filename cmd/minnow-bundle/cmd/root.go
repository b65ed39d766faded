package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/minnow-bundle/internal/console"
	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/service/bundler"
	"github.com/oshokin/minnow-bundle/internal/version"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	// projectRoot is the source tree to bundle.
	projectRoot string
	// configPath to an optional YAML or TOML configuration file.
	configPath string
	// logLevel overrides log.level from the configuration.
	logLevel string
}

// Execute runs the minnow-bundle CLI and exits with status 1 on any error.
func Execute() {
	if code := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, &bundler.Options{}); code != 0 {
		os.Exit(code)
	}
}

// run executes the CLI with args and returns the process exit status.
// base supplies host dependencies; the flags fill in the rest.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, base *bundler.Options) int {
	root := newRootCommand(base)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	printer := console.New(stdout, stderr)
	printer.Error(err)

	if hint := hintFor(err); hint != "" {
		printer.Hint(hint)
	}

	return 1
}

// newRootCommand builds the command tree around a copy of base.
func newRootCommand(base *bundler.Options) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "minnow-bundle",
		Short:         "Bundle a MinnowSnap release for the current platform",
		Long:          "Build the release binary, deploy its Qt runtime and package it as a portable zip on Windows or a DMG installer on macOS.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := *base
			opts.ProjectRoot = flags.projectRoot
			opts.ConfigPath = flags.configPath
			opts.LogLevel = flags.logLevel
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()

			_, err := bundler.Run(ctx, &opts)

			return err
		},
	}

	persistent := root.PersistentFlags()
	persistent.StringVarP(&flags.projectRoot, "project-root", "p", ".", "path to the project source tree")
	persistent.StringVarP(&flags.configPath, "config", "c", "", "path to configuration file (default <project-root>/bundle.yaml when present)")
	persistent.StringVarP(&flags.logLevel, "log-level", "l", "", "log level: debug, info, warn or error")

	version.AttachCobraVersionCommand(root)
	root.AddCommand(newConfigCommand(flags, base.Environ))

	return root
}

// hintFor suggests a follow-up for errors the operator can resolve.
func hintFor(err error) string {
	switch {
	case errors.Is(err, release.ErrMissingDependencyTool):
		return "Install the missing tool, then run minnow-bundle again."
	case errors.Is(err, release.ErrProductRunning):
		return "Close the application, or set preflight.check_running to false."
	case errors.Is(err, release.ErrUnsupportedPlatform):
		return "Bundles are built on Windows (portable zip) and macOS (DMG installer)."
	default:
		return ""
	}
}
