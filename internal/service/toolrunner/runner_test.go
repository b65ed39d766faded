package toolrunner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
)

const helperEnv = "TOOLRUNNER_WANT_HELPER_PROCESS=1"

// helperCommand builds a command that re-executes the test binary as a fake tool.
func helperCommand(silent bool, exitCode int) Command {
	return Command{
		Name:   os.Args[0],
		Args:   []string{"-test.run=TestHelperProcess", "--", strconv.Itoa(exitCode)},
		Env:    []string{helperEnv},
		Silent: silent,
	}
}

// TestHelperProcess is not a real test: it plays the external tool for the tests below.
func TestHelperProcess(*testing.T) {
	if os.Getenv("TOOLRUNNER_WANT_HELPER_PROCESS") != "1" {
		return
	}

	exitCode, _ := strconv.Atoi(os.Args[len(os.Args)-1]) //nolint:errcheck // Controlled by the test.

	_, _ = fmt.Fprintln(os.Stdout, "deploying Qt6Core.dll")
	_, _ = fmt.Fprintln(os.Stderr, "warning: no translations")

	os.Exit(exitCode)
}

// TestExecRunner_SilentSuccessDiscardsOutput verifies captured output is dropped on success.
func TestExecRunner_SilentSuccessDiscardsOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := New(&stdout, &stderr).Run(context.Background(), helperCommand(true, 0))
	require.NoError(t, err)
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}

// TestExecRunner_SilentFailureFlushesOutput verifies captured output surfaces on failure.
func TestExecRunner_SilentFailureFlushesOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	command := helperCommand(true, 3)

	err := New(&stdout, &stderr).Run(context.Background(), command)
	require.ErrorIs(t, err, release.ErrExternalToolFailure)
	require.Contains(t, stdout.String(), "deploying Qt6Core.dll")
	require.Contains(t, stderr.String(), "warning: no translations")

	var runErr *Error
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, 3, runErr.ExitCode)
	require.Equal(t, command.String(), runErr.Command)
	require.Contains(t, err.Error(), "TestHelperProcess")
}

// TestExecRunner_StreamsWhenNotSilent checks that output is written live to the runner streams.
func TestExecRunner_StreamsWhenNotSilent(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := New(&stdout, &stderr).Run(context.Background(), helperCommand(false, 0))
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "deploying Qt6Core.dll")
	require.Contains(t, stderr.String(), "warning: no translations")
}

// TestExecRunner_MissingProgram reports a command that cannot start as a tool failure.
func TestExecRunner_MissingProgram(t *testing.T) {
	t.Parallel()

	err := New(&bytes.Buffer{}, &bytes.Buffer{}).Run(context.Background(), Command{
		Name: "definitely-not-a-real-tool-4f1c",
	})
	require.ErrorIs(t, err, release.ErrExternalToolFailure)

	var runErr *Error
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, -1, runErr.ExitCode)
}
