// Package toolrunner invokes the external programs of the bundling pipeline:
// the application build tool, the GUI dependency deployer and the disk-image
// packager.
//
// A Command is either streamed to the operator's console or run silently, in
// which case its output is kept and only surfaced when the command fails. Any
// failure is returned as *Error, which matches release.ErrExternalToolFailure.
package toolrunner
