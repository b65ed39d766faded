package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/minnow-bundle/internal/config"
)

// newConfigCommand prints the effective configuration, or saves it with --write.
// A nil environ reads the process environment.
func newConfigCommand(flags *rootFlags, environ func() []string) *cobra.Command {
	var writePath string

	command := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Resolve defaults, the configuration file and BUNDLE_* environment variables, then print the result as YAML or save it to a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := filepath.Abs(flags.projectRoot)
			if err != nil {
				return fmt.Errorf("resolve project root: %w", err)
			}

			var opts []config.Option
			if environ != nil {
				opts = append(opts, config.WithEnviron(environ))
			}

			cfg, err := config.Load(root, flags.configPath, opts...)
			if err != nil {
				return err
			}

			if writePath != "" {
				return config.Save(writePath, cfg)
			}

			contents, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(contents)

			return err
		},
	}

	command.Flags().StringVarP(&writePath, "write", "w", "", "save the configuration to this file instead of printing it")

	return command
}
