// Package config defines the settings of a bundling run and loads them from
// built-in defaults, an optional YAML or TOML file and BUNDLE_* environment
// variables.
//
// Every path in the configuration is relative to the project root unless it
// is absolute; the project root itself is never stored in package state.
package config
