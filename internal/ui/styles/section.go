package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderFormSection renders a bordered input box with the field label and an
// optional hint in the top edge: ╭─ Email (✓) ───╮. When focused is true the
// border and label use focusedBorderColor; the form passes the error color
// here for invalid fields. A label too wide for the box loses its hint first
// and is then shortened.
func RenderFormSection(content []string, title, hint string, width int, focused bool, focusedBorderColor lipgloss.TerminalColor) string {
	var color lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		color = focusedBorderColor
	}
	edge := lipgloss.NewStyle().Foreground(color)
	inner := max(width-2, 1)
	room := inner - 4

	if title == "" || room < 1 {
		return frame(topEdge("", 0, inner, edge), content, inner, edge)
	}

	if hint != "" && lipgloss.Width(title)+lipgloss.Width(hint)+3 > room {
		hint = ""
	}
	title = ansi.Truncate(title, room, ellipsis)

	label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)
	w := lipgloss.Width(title)
	if hint != "" {
		label += " " + lipgloss.NewStyle().Foreground(TextMutedColor).Render("("+hint+")")
		w += lipgloss.Width(hint) + 3
	}
	return frame(topEdge(label, w, inner, edge), content, inner, edge)
}
