// Package dialog shows the native folder picker by running the platform's dialog program.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"editorshell/logging"
)

var ErrNoPicker = errors.New("no folder picker program available")

// Picker asks the user for a folder. ok is false when the user cancelled.
type Picker interface {
	PickFolder(ctx context.Context, title string) (path string, ok bool, err error)
}

// ExecPicker runs an external dialog program. The program prints the chosen folder on
// stdout; exit status 1 or empty output means the user cancelled.
type ExecPicker struct {
	Program string
	Args    func(title string) []string

	logger *zap.Logger
}

type program struct {
	name string
	args func(title string) []string
}

var programs = map[string]program{
	"zenity": {"zenity", func(title string) []string {
		return []string{"--file-selection", "--directory", "--title=" + title}
	}},
	"kdialog": {"kdialog", func(title string) []string {
		return []string{"--getexistingdirectory", ".", "--title", title}
	}},
	"osascript": {"osascript", func(title string) []string {
		return []string{"-e", fmt.Sprintf("POSIX path of (choose folder with prompt %q)", title)}
	}},
	"powershell": {"powershell", func(title string) []string {
		script := "Add-Type -AssemblyName System.Windows.Forms;" +
			"$d = New-Object System.Windows.Forms.FolderBrowserDialog;" +
			fmt.Sprintf("$d.Description = '%s';", strings.ReplaceAll(title, "'", "''")) +
			"if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath }"
		return []string{"-NoProfile", "-Command", script}
	}},
}

func candidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"osascript"}
	case "windows":
		return []string{"powershell"}
	default:
		return []string{"zenity", "kdialog"}
	}
}

// NewExecPicker resolves the picker program. An empty name picks the first program
// available for this platform.
func NewExecPicker(name string) (*ExecPicker, error) {
	names := candidates()
	if name != "" {
		names = []string{name}
	}

	for _, n := range names {
		p, known := programs[n]
		if !known {
			return nil, fmt.Errorf("unknown folder picker %q", n)
		}
		path, err := exec.LookPath(p.name)
		if err != nil {
			continue
		}
		return &ExecPicker{
			Program: path,
			Args:    p.args,
			logger:  logging.Named("dialog"),
		}, nil
	}

	return nil, ErrNoPicker
}

func (p *ExecPicker) PickFolder(ctx context.Context, title string) (string, bool, error) {
	var args []string
	if p.Args != nil {
		args = p.Args(title)
	}

	out, err := exec.CommandContext(ctx, p.Program, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("folder picker failed: %w", err)
	}

	selected := strings.TrimSpace(string(out))
	if selected == "" {
		return "", false, nil
	}
	if p.logger != nil {
		p.logger.Debug("folder picked", zap.String("path", selected))
	}
	return filepath.Clean(selected), true, nil
}

// Unavailable is used when no picker program exists; every pick fails with ErrNoPicker.
type Unavailable struct{}

func (Unavailable) PickFolder(context.Context, string) (string, bool, error) {
	return "", false, ErrNoPicker
}
