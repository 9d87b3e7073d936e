// Package editor launches the user's preferred text editor on the
// configuration file.
package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/miuitask/internal/errors"
)

// Editor runs an external editor with the given stdio.
type Editor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Editor attached to the process terminal.
func New() *Editor {
	return &Editor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Open launches the editor for path and waits for it to exit.
// $EDITOR may carry arguments, as in "code --wait".
func (e *Editor) Open(ctx context.Context, path string) error {
	argv := strings.Fields(detectEditor())
	if len(argv) == 0 {
		return errors.New("no editor configured")
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return errors.WithHintf(errors.Wrapf(err, "running editor %s", argv[0]),
			"set EDITOR to an installed editor")
	}
	return nil
}

// Open launches the preferred editor on the process terminal.
func Open(ctx context.Context, path string) error {
	return New().Open(ctx, path)
}

// detectEditor returns the editor command.
// Fallback chain: $EDITOR, $VISUAL, nano, vi.
func detectEditor() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	if visual := strings.TrimSpace(os.Getenv("VISUAL")); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
