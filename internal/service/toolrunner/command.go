package toolrunner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"

	"github.com/oshokin/minnow-bundle/internal/domain/release"
)

var errEmptyCommand = errors.New("command line is empty")

// Command describes one external program invocation.
type Command struct {
	// Name is the program to execute, resolved through the system path.
	Name string
	// Args are passed to the program verbatim.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the process environment.
	Env []string
	// Silent captures output and only prints it when the command fails.
	Silent bool
}

// String renders the command as a shell-quoted line for diagnostics.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)

	for _, word := range append([]string{c.Name}, c.Args...) {
		quoted, err := syntax.Quote(word, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", word)
		}

		parts = append(parts, quoted)
	}

	return strings.Join(parts, " ")
}

// SplitCommand turns a configured command line such as "cargo build --release"
// into a program name and its arguments. Quotes are honored.
func SplitCommand(line string) (string, []string, error) {
	fields, err := SplitArgs(line)
	if err != nil {
		return "", nil, err
	}

	if len(fields) == 0 {
		return "", nil, errEmptyCommand
	}

	return fields[0], fields[1:], nil
}

// SplitArgs splits a configured argument string into fields. An empty string
// yields no arguments.
func SplitArgs(line string) ([]string, error) {
	fields, err := shell.Fields(line, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("parse command line %q: %w", line, err)
	}

	return fields, nil
}

// LookPath finds name on the system path. A missing tool is reported as
// release.ErrMissingDependencyTool.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", release.ErrMissingDependencyTool, name, err)
	}

	return path, nil
}
