package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.uiground/logs, falling back to a temp
// directory when the home directory cannot be resolved.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "uiground", "logs")
	}
	return filepath.Join(home, ".uiground", "logs")
}

// DefaultLogPath returns the default server log file location.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "uiground.log")
}
