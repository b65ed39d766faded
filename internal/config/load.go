package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/knadh/koanf/parsers/toml/v2"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override configuration keys,
// e.g. BUNDLE_ARCHIVE_FORMAT=tar.xz.
const EnvPrefix = "BUNDLE_"

var (
	errUnsupportedConfigFormat = errors.New("unsupported config file extension")
	errNotRawBytes             = errors.New("defaults provider only supports ReadBytes")
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	environ func() []string
}

// WithEnviron replaces os.Environ as the source of BUNDLE_* overrides.
func WithEnviron(environ func() []string) Option {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// Load resolves configuration in three layers (highest precedence last):
//
//  1. Built-in defaults (Default).
//  2. The config file: path if given, otherwise bundle.yaml in the project
//     root when it exists. YAML and TOML are accepted.
//  3. Environment variables with the BUNDLE_ prefix.
//
// The result is validated against projectRoot.
func Load(projectRoot, path string, opts ...Option) (*Config, error) {
	o := &loadOptions{environ: os.Environ}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}

	if err = k.Load(rawBytes(defaults), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path, err = configFile(projectRoot, path)
	if err != nil {
		return nil, err
	}

	if path != "" {
		var parser koanf.Parser

		parser, err = parserFor(path)
		if err != nil {
			return nil, err
		}

		if err = k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// Reverse lookup so BUNDLE_DISK_IMAGE_ICON_SIZE resolves to
	// disk_image.icon_size rather than disk.image.icon.size.
	envLookup := buildEnvLookup(k.Keys())

	if err = k.Load(env.Provider(".", env.Opt{
		Prefix:      EnvPrefix,
		EnvironFunc: o.environ,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

			if koanfKey, ok := envLookup[key]; ok {
				return koanfKey, value
			}

			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err = k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err = Validate(&cfg, projectRoot); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// configFile returns the file to load, or "" when the optional default is absent.
func configFile(projectRoot, path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}

		return filepath.Clean(path), nil
	}

	candidate := filepath.Join(projectRoot, DefaultConfigFilename)

	_, err := os.Stat(candidate)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("config file: %w", err)
	}

	return candidate, nil
}

// parserFor picks a koanf parser from the file extension.
//
//nolint:ireturn // koanf accepts any Parser.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedConfigFormat, path)
	}
}

// buildEnvLookup maps env-style keys ("disk_image_icon_size") to koanf keys
// ("disk_image.icon_size").
func buildEnvLookup(keys []string) map[string]string {
	lookup := make(map[string]string, len(keys))
	for _, key := range keys {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}

	return lookup
}

// rawBytes is a koanf provider over an in-memory document.
type rawBytes []byte

// ReadBytes returns the document.
func (r rawBytes) ReadBytes() ([]byte, error) {
	return r, nil
}

// Read is not supported; koanf uses ReadBytes when a parser is given.
func (r rawBytes) Read() (map[string]any, error) {
	return nil, errNotRawBytes
}
