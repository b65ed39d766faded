// Package bundler drives a complete release bundling run.
//
// Run loads the configuration for a project root, refuses to bundle while the
// product is running, picks the packager for the host platform family and
// writes the release description next to the produced artifact.
package bundler
