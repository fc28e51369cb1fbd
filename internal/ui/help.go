package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Board",
		items: []helpItem{
			{"h/j/k/l", "Move between cards"},
			{"g/G", "First/last card"},
			{"a", "Add order"},
			{"e", "Edit selected order"},
			{"d", "Confirm delivery"},
			{"r", "Complete pickup"},
			{"x", "Cancel order"},
			{"y", "Copy order id"},
		},
	},
	{
		title: "History",
		items: []helpItem{
			{"H", "Delivery history"},
			{"X", "Export history JSON"},
		},
	},
	{
		title: "Log",
		items: []helpItem{
			{"L", "Application log"},
			{"Space", "Toggle follow mode"},
			{"v", "Cycle level filter"},
			{"/", "Search log"},
			{"n/N", "Next/prev match"},
		},
	},
	{
		title: "General",
		items: []helpItem{
			{"esc", "Close dialog / back"},
			{"T", "Cycle theme"},
			{"?", "Toggle help"},
			{"q/ctrl+c", "Quit"},
		},
	},
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var b strings.Builder
	for i, section := range helpSections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(helpSections)-1 {
			b.WriteString("\n")
		}
	}

	return renderModal(m.theme, "Keyboard Shortcuts", b.String(), 44, m.width, m.height)
}
