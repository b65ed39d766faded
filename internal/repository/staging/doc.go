// Package staging owns the on-disk output tree of a bundling run.
//
// Manager recreates the output root from scratch so no stale files from a
// previous run can leak into an artifact. Stager copies the binary and the
// declared resource directories into the staging layout, overwriting on
// conflict.
package staging
