package release

import "errors"

var (
	// ErrMissingArtifact is returned when an expected build output or required
	// resource is absent.
	ErrMissingArtifact = errors.New("missing artifact")
	// ErrExternalToolFailure is returned when an external command exits non-zero
	// or cannot be started.
	ErrExternalToolFailure = errors.New("external tool failed")
	// ErrMissingDependencyTool is returned when a required external tool cannot
	// be found on the system path.
	ErrMissingDependencyTool = errors.New("required tool not found")
	// ErrUnsupportedPlatform is returned when the host matches no known family.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrProductRunning is returned when the application being bundled is running
	// and would lock its own binary.
	ErrProductRunning = errors.New("product is running")
)
