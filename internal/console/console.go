// Package console prints the operator-facing progress lines of a bundling
// run, e.g. "    Building release binary (cargo)", and the final fatal
// diagnostic.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// ActionWidth is the column the action verb is right-aligned to.
const ActionWidth = 12

// Color palette shared by progress and error output.
const (
	colorAction = lipgloss.Color("#10B981")
	colorError  = lipgloss.Color("#EF4444")
	colorMuted  = lipgloss.Color("#6B7280")
)

// Printer writes aligned progress lines and diagnostics.
// Styles are bound to the writers, so plain files and pipes get no escape codes.
type Printer struct {
	out io.Writer
	err io.Writer

	actionStyle lipgloss.Style
	errorStyle  lipgloss.Style
	hintStyle   lipgloss.Style
}

// New creates a printer writing progress to out and diagnostics to errOut.
func New(out, errOut io.Writer) *Printer {
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)

	return &Printer{
		out: out,
		err: errOut,
		actionStyle: outRenderer.NewStyle().
			Width(ActionWidth).
			Align(lipgloss.Right).
			Bold(true).
			Foreground(colorAction),
		errorStyle: errRenderer.NewStyle().
			Bold(true).
			Foreground(colorError),
		hintStyle: errRenderer.NewStyle().
			Foreground(colorMuted),
	}
}

// Action prints "<right-aligned action> <message>".
func (p *Printer) Action(action, message string) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.actionStyle.Render(action), message)
}

// Actionf is Action with a formatted message.
func (p *Printer) Actionf(action, format string, args ...any) {
	p.Action(action, fmt.Sprintf(format, args...))
}

// Error prints a fatal diagnostic.
func (p *Printer) Error(err error) {
	_, _ = fmt.Fprintf(p.err, "\n%s %s\n", p.errorStyle.Render("Error:"), err)
}

// Hint prints a secondary line under a diagnostic.
func (p *Printer) Hint(message string) {
	_, _ = fmt.Fprintln(p.err, p.hintStyle.Render(message))
}
