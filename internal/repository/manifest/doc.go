// Package manifest reads the project manifest (Cargo.toml) to find the
// declared release version used for artifact naming.
package manifest
