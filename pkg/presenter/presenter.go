// Package presenter provides consistent CLI output for user-facing messages:
// success, error, warning, and informational lines with color support and a
// quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Presenter defines the interface for user-facing CLI output.
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	SetQuiet(quiet bool)
}

// TerminalPresenter implements Presenter for terminal output.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

// New creates a TerminalPresenter writing to stdout/stderr with color
// auto-detection.
func New() *TerminalPresenter {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters creates a TerminalPresenter with custom writers. Color is
// disabled when stdout is not a terminal.
func NewWithWriters(output, errorOutput io.Writer) *TerminalPresenter {
	if f, ok := output.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		color.NoColor = true
	}
	return &TerminalPresenter{output: output, errorOutput: errorOutput}
}

// Error prints an error with context to the error output. Errors print even
// in quiet mode.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}
	fmt.Fprintf(p.errorOutput, "%s %s: %v\n", color.RedString("Error:"), context, err)
}

// Success prints a success message.
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s %s\n", color.GreenString("✓"), message)
}

// Warning prints a warning message.
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s %s\n", color.YellowString("Warning:"), message)
}

// Info prints an informational message.
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, message)
}

// Section prints a section header.
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "\n%s\n", color.New(color.Bold).Sprint(title))
}

// SetQuiet toggles suppression of non-error output.
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

var defaultPresenter Presenter = New()

// Error prints an error via the default presenter.
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success prints a success message via the default presenter.
func Success(message string) { defaultPresenter.Success(message) }

// Warning prints a warning via the default presenter.
func Warning(message string) { defaultPresenter.Warning(message) }

// Info prints a message via the default presenter.
func Info(message string) { defaultPresenter.Info(message) }

// Section prints a section header via the default presenter.
func Section(title string) { defaultPresenter.Section(title) }

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
