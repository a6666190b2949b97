// Package styles contains Lip Gloss style definitions.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "…"

// Panel frames content in a rounded border of the given outer width with
// the title set into the top edge:
//
//	╭─ Registration ──╮
//	│ content         │
//	╰─────────────────╯
//
// Content is wrapped to fit and the panel grows to its height.
func Panel(content, title string, width int, titleColor lipgloss.TerminalColor) string {
	inner := max(width-2, 1)
	edge := lipgloss.NewStyle().Foreground(BorderDefaultColor)

	var top string
	if room := inner - 4; title == "" || room < 1 {
		top = topEdge("", 0, inner, edge)
	} else {
		title = ansi.Truncate(title, room, ellipsis)
		top = topEdge(lipgloss.NewStyle().Foreground(titleColor).Render(title), lipgloss.Width(title), inner, edge)
	}

	body := lipgloss.NewStyle().Width(inner).Render(content)
	return frame(top, strings.Split(body, "\n"), inner, edge)
}

// topEdge renders "╭─ label ─…─╮" around an already styled label of the
// given cell width. A zero width draws a plain edge.
func topEdge(label string, w, inner int, edge lipgloss.Style) string {
	if w == 0 {
		return edge.Render("╭" + strings.Repeat("─", inner) + "╮")
	}
	return edge.Render("╭─ ") + label + edge.Render(" "+strings.Repeat("─", max(inner-3-w, 0))+"╮")
}

// frame puts side edges around each line, padded to inner, and closes the box.
func frame(top string, lines []string, inner int, edge lipgloss.Style) string {
	side := edge.Render("│")
	var b strings.Builder
	b.WriteString(top)
	for _, line := range lines {
		b.WriteString("\n" + side + line + strings.Repeat(" ", max(inner-lipgloss.Width(line), 0)) + side)
	}
	b.WriteString("\n" + edge.Render("╰"+strings.Repeat("─", inner)+"╯"))
	return b.String()
}
