// Package preflight runs host checks before the build starts.
//
// The build step overwrites the product executable, which fails on a locked
// binary, so bundling is refused while the product is running.
package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/logger"
)

// ProcessLister returns a snapshot of the process table.
type ProcessLister func() ([]ps.Process, error)

// SystemProcesses lists the processes of the host.
func SystemProcesses() ([]ps.Process, error) {
	return ps.Processes()
}

// EnsureNotRunning fails with release.ErrProductRunning if any process other
// than the current one has one of the given executable names.
// Names are compared case-insensitively.
func EnsureNotRunning(ctx context.Context, list ProcessLister, names ...string) error {
	if list == nil {
		list = SystemProcesses
	}

	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		for _, name := range names {
			if !strings.EqualFold(process.Executable(), name) {
				continue
			}

			logger.WarnKV(ctx, "Product process is running", "pid", process.Pid(), "executable", process.Executable())

			return fmt.Errorf("%w: %s (pid %d), close it before bundling", release.ErrProductRunning, name, process.Pid())
		}
	}

	logger.DebugKV(ctx, "No running product process found", "checked", len(processList))

	return nil
}
