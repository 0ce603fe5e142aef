package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// isTerminal reports whether stdout is attached to a terminal. Styled output
// (colors, bold headers) only makes sense there; piped or redirected output
// should stay plain rather than carry ANSI escapes into a file or another
// program's stdin.
var isTerminal = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// newStyle returns s unchanged when stdout is a terminal, or a bare style
// with no color/bold attributes otherwise.
func newStyle(s lipgloss.Style) lipgloss.Style {
	if isTerminal {
		return s
	}
	return lipgloss.NewStyle()
}
