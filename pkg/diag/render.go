package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Render formats err against the source it came from. Positioned errors get
// a header, up to one line of context on either side and a caret under the
// column (or under the first non-blank character when the column is
// unknown). Anything else renders as err.Error().
func Render(err error, src string) string {
	var e *Error
	if !errors.As(err, &e) || e.Line <= 0 {
		return err.Error()
	}

	lines := strings.Split(src, "\n")
	line := e.Line
	if line > len(lines) {
		line = len(lines)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at %d", e.Kind, e.Line)
	if e.Col > 0 {
		fmt.Fprintf(&sb, ":%d", e.Col)
	}
	fmt.Fprintf(&sb, ": %s\n\n", e.Msg)

	width := len(fmt.Sprint(line + 1))
	for n := line - 1; n <= line+1; n++ {
		if n < 1 || n > len(lines) {
			continue
		}
		text := strings.TrimRight(lines[n-1], "\r")
		if n != line && strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&sb, "  %*d | %s\n", width, n, text)
		if n == line {
			fmt.Fprintf(&sb, "  %s | %s^\n", strings.Repeat(" ", width), caretPad(text, e.Col))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// caretPad returns the text that puts a caret under column col of text.
// Columns count runes, and tabs are copied so the caret lines up however the
// terminal expands them.
func caretPad(text string, col int) string {
	runes := []rune(text)
	if col <= 0 {
		col = 1
		for i, c := range runes {
			if c != ' ' && c != '\t' {
				col = i + 1
				break
			}
		}
	}
	if col > len(runes)+1 {
		col = len(runes) + 1
	}

	var sb strings.Builder
	for _, c := range runes[:col-1] {
		if c == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
