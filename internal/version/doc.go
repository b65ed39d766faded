// Package version holds the build metadata of minnow-bundle.
//
// Version, Commit and BuildTime are set through -ldflags "-X ..." at release
// time; local builds report the defaults.
package version
