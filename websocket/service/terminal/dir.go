package terminal

import (
	"os"
)

// resolveDir returns the first candidate that is an existing directory, falling back to
// the home directory.
func resolveDir(candidates ...string) string {
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// loginShell picks the user's shell, or bash when $SHELL is unset.
func loginShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "bash"
}
