package sheetsign

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-sheetsign/internal/fileutil"
)

// workspace is a private scratch directory for one run. It holds the
// spreadsheet copy, the converter output and the overlay pages.
type workspace struct {
	dir string
}

func newWorkspace() (*workspace, error) {
	dir, err := os.MkdirTemp("", "sheetsign-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile stores data under name and returns the full path.
func (w *workspace) WriteFile(name string, data []byte) (string, error) {
	if err := fileutil.ValidateName(name); err != nil {
		return "", fmt.Errorf("workspace file %q: %w", name, err)
	}
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing workspace file: %w", err)
	}
	return path, nil
}

// Close removes the workspace and everything in it.
func (w *workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	return os.RemoveAll(w.dir)
}

// Sub creates a subdirectory and returns its path.
func (w *workspace) Sub(name string) (string, error) {
	if err := fileutil.ValidateName(name); err != nil {
		return "", fmt.Errorf("workspace dir %q: %w", name, err)
	}
	path := w.Path(name)
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", fmt.Errorf("creating workspace dir: %w", err)
	}
	return path, nil
}
