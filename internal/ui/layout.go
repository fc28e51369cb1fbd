package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LayoutCompactWidth is the width below which the header abbreviates labels.
const LayoutCompactWidth = 100

// renderTitledBox renders content in a box with the title embedded in the top border:
// ┌─── Title ───┐
// Focused boxes use BorderFocus and FocusBg.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := newSurface(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(0, width-2)
	titleLen := lipgloss.Width(title)
	leftPad := max(0, (innerWidth-titleLen-2)/2)
	rightPad := max(0, innerWidth-titleLen-2-leftPad)

	topBorder := bg.text("┌", borderStyle) +
		bg.text(strings.Repeat("─", leftPad), borderStyle) +
		bg.text(" "+title+" ", titleStyle) +
		bg.text(strings.Repeat("─", rightPad), borderStyle) +
		bg.text("┐", borderStyle)

	bottomBorder := bg.text("└", borderStyle) +
		bg.text(strings.Repeat("─", innerWidth), borderStyle) +
		bg.text("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")

	boxHeight := max(0, height-2)
	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.text("│", borderStyle)+
				contentStyle.Render(line)+
				bg.text("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
