// Package release contains core domain types for producing a distributable
// build of the desktop application.
//
// It defines the host platform Family the pipeline branches on, the
// deterministic artifact naming rules, and the sentinel errors every stage
// wraps so the command layer can report a single fatal diagnostic.
package release
