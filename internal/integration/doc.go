// Package integration runs whole bundling runs against real subprocesses.
//
// The build and deploy tools are replaced by small shell scripts placed on
// PATH, so the runs exercise command splitting, process execution, staging
// and archive writing exactly as a release build would.
package integration
