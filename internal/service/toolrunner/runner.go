package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
	"github.com/oshokin/minnow-bundle/internal/logger"
)

// Runner executes external commands. Implementations block until the command exits.
type Runner interface {
	Run(ctx context.Context, command Command) error
}

// ExecRunner runs commands as child processes of the bundler.
type ExecRunner struct {
	// stdout receives streamed output and flushed captured stdout.
	stdout io.Writer
	// stderr receives streamed errors and flushed captured stderr.
	stderr io.Writer
}

// New creates an ExecRunner writing to the provided streams.
// Nil writers default to the process stdout and stderr.
func New(stdout, stderr io.Writer) *ExecRunner {
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &ExecRunner{
		stdout: stdout,
		stderr: stderr,
	}
}

// Error is returned when an external command could not run or exited non-zero.
type Error struct {
	// Command is the shell-quoted command line.
	Command string
	// ExitCode is the process exit status, or -1 if it never started.
	ExitCode int
	// Err is the underlying exec error.
	Err error
}

// Error returns the message including the full command line.
func (e *Error) Error() string {
	return fmt.Sprintf("error executing command: %s: %v", e.Command, e.Err)
}

// Unwrap exposes both the failure category and the underlying exec error.
func (e *Error) Unwrap() []error {
	return []error{release.ErrExternalToolFailure, e.Err}
}

// Run executes the command and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, command Command) error {
	logger.DebugKV(ctx, "Running external command",
		"command", command.String(),
		"dir", command.Dir,
		"silent", command.Silent,
	)

	//nolint:gosec // Commands come from the bundler configuration, not from user input.
	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Dir = command.Dir

	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}

	var capturedOut, capturedErr bytes.Buffer

	if command.Silent {
		cmd.Stdout = &capturedOut
		cmd.Stderr = &capturedErr
	} else {
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if command.Silent {
		_, _ = r.stdout.Write(capturedOut.Bytes())
		_, _ = r.stderr.Write(capturedErr.Bytes())
	}

	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &Error{
		Command:  command.String(),
		ExitCode: exitCode,
		Err:      err,
	}
}
