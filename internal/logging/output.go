package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// OpenOutput resolves an output target:
//   - "" or "stdout": standard output
//   - "stderr": standard error
//   - "file:///path" or any path containing a separator: that file,
//     appended to, parent directories created
func OpenOutput(target string) (io.WriteCloser, error) {
	switch {
	case target == "" || target == "stdout":
		return nopCloser{os.Stdout}, nil
	case target == "stderr":
		return nopCloser{os.Stderr}, nil
	case strings.HasPrefix(target, "file://"):
		return openFile(strings.TrimPrefix(target, "file://"))
	case strings.Contains(target, "://"):
		return nil, fmt.Errorf("%w: %s", ErrOutput, target)
	case strings.ContainsAny(target, `/\`):
		return openFile(target)
	default:
		return nil, fmt.Errorf("%w: %s", ErrOutput, target)
	}
}

func openFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return f, nil
}
