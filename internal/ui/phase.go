package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DividerWidth is the default width for divider lines.
const DividerWidth = 64

// PhaseDisplay renders step progress to an output writer.
//
// Interactive displays rewrite the progress line in place once the step
// finishes. Plain displays (pipes, CI logs) print "<step>..." on its own line
// before the step runs and only add a line when it fails.
type PhaseDisplay struct {
	w           io.Writer
	interactive bool
}

// NewPhaseDisplay creates a new phase display writing to w.
func NewPhaseDisplay(w io.Writer, interactive bool) *PhaseDisplay {
	return &PhaseDisplay{
		w:           w,
		interactive: interactive,
	}
}

// RenderProgress renders a step about to run.
// Shows: ◐ Adding group `myapp`...
func (pd *PhaseDisplay) RenderProgress(name string) {
	if !pd.interactive {
		fmt.Fprintf(pd.w, "%s...\n", name)
		return
	}
	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	fmt.Fprintf(pd.w, "\r%s %s...", style.Render(SymbolProgress), name)
}

// RenderSuccess renders a completed step.
// Shows: ● Adding group `myapp` 0.3s
func (pd *PhaseDisplay) RenderSuccess(name string, duration time.Duration) {
	if !pd.interactive {
		return
	}
	pd.clearLine()
	fmt.Fprintln(pd.w, FormatPhase(SymbolComplete, ColorSuccess, name, formatDuration(duration)))
}

// RenderFailed renders a failed step. The error itself is reported by the
// caller.
// Shows: ✗ Adding group `myapp` 0.2s
func (pd *PhaseDisplay) RenderFailed(name string, duration time.Duration, _ error) {
	if pd.interactive {
		pd.clearLine()
	}
	fmt.Fprintln(pd.w, FormatPhase(SymbolFail, ColorError, name, formatDuration(duration)))
}

// RenderWarning renders a warning line.
// Shows: ! host key verification is disabled for 'server1'
func (pd *PhaseDisplay) RenderWarning(msg string) {
	if pd.interactive {
		pd.clearLine()
	}
	style := lipgloss.NewStyle().Foreground(ColorWarning)
	fmt.Fprintf(pd.w, "%s %s\n", style.Render(SymbolWarning), msg)
}

// CommandPrompt renders a command about to be executed.
// Shows: $ groupadd myapp
func (pd *PhaseDisplay) CommandPrompt(cmd string) {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	fmt.Fprintf(pd.w, "%s %s\n", style.Render("$"), cmd)
}

// ThinDivider renders a thin horizontal line.
func (pd *PhaseDisplay) ThinDivider() {
	fmt.Fprintf(pd.w, "\n%s\n\n", FormatDivider(DividerWidth))
}

// Newline writes an empty line.
func (pd *PhaseDisplay) Newline() {
	fmt.Fprintln(pd.w)
}

// clearLine clears the current line (for overwriting progress output).
func (pd *PhaseDisplay) clearLine() {
	fmt.Fprint(pd.w, "\r"+strings.Repeat(" ", 80)+"\r")
}

// FormatPhase returns a formatted phase line as a string.
func FormatPhase(symbol string, symbolColor lipgloss.Color, name string, timing string) string {
	symbolStyle := lipgloss.NewStyle().Foreground(symbolColor)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	if timing == "" {
		return fmt.Sprintf("%s %s", symbolStyle.Render(symbol), name)
	}
	return fmt.Sprintf("%s %s %s", symbolStyle.Render(symbol), name, timingStyle.Render(timing))
}

// FormatDivider returns a divider line as a string.
func FormatDivider(width int) string {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	return style.Render(strings.Repeat("─", width))
}

func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
