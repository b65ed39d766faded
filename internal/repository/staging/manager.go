package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirMode is used for every directory created in the output tree.
const DefaultDirMode os.FileMode = 0o755

var errOutputRootRequired = errors.New("output root must be provided")

// Manager recreates the output root and the staging tree inside it.
type Manager struct {
	// root is the output directory exclusively owned by one run.
	root string
}

// NewManager creates a manager for the provided output root.
func NewManager(root string) *Manager {
	return &Manager{
		root: filepath.Clean(root),
	}
}

// Prepare removes the output root, recreates it empty and creates the named
// staging directory inside it. Calling it repeatedly yields the same result.
func (m *Manager) Prepare(name string) (root, dir string, err error) {
	root, err = m.Reset()
	if err != nil {
		return "", "", err
	}

	dir = filepath.Join(root, name)
	if err = os.MkdirAll(dir, DefaultDirMode); err != nil {
		return "", "", fmt.Errorf("create staging directory: %w", err)
	}

	return root, dir, nil
}

// Reset removes the output root and recreates it empty.
func (m *Manager) Reset() (string, error) {
	if m.root == "" || m.root == "." {
		return "", errOutputRootRequired
	}

	if err := os.RemoveAll(m.root); err != nil {
		return "", fmt.Errorf("remove output root: %w", err)
	}

	if err := os.MkdirAll(m.root, DefaultDirMode); err != nil {
		return "", fmt.Errorf("create output root: %w", err)
	}

	return m.root, nil
}
