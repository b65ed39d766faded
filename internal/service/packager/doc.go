// Package packager turns a built application into a distributable artifact.
//
// Two strategies implement Packager: ArchivePackager stages the Windows binary
// with its Qt runtime and resources and compresses the staging tree into a
// portable archive; DiskImagePackager deploys the Qt runtime into the macOS
// application bundle and wraps it into an installer disk image. Describe
// writes a YAML release description with the artifact checksum next to the
// result.
package packager
