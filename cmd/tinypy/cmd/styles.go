package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorError  = lipgloss.Color("#EF4444") // Red
	colorAccent = lipgloss.Color("#F59E0B") // Amber
	colorMuted  = lipgloss.Color("#6B7280") // Gray
	colorValue  = lipgloss.Color("#06B6D4") // Cyan
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	caretStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	snippetStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorValue)
)

func styleError(s string, color bool) string {
	if !color {
		return s
	}
	return errorStyle.Render(s)
}

func styleValue(s string, color bool) string {
	if !color {
		return s
	}
	return valueStyle.Render(s)
}

// styleDiagnostic colours a rendered diagnostic: the header line as an
// error, the caret line as an accent, source context muted.
func styleDiagnostic(rendered string, color bool) string {
	if !color {
		return rendered
	}
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = errorStyle.Render(line)
		case line == "":
		case isCaretLine(line):
			lines[i] = caretStyle.Render(line)
		default:
			lines[i] = snippetStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func isCaretLine(line string) bool {
	_, after, ok := strings.Cut(line, " | ")
	return ok && strings.TrimSpace(after) == "^"
}
