package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// emit wraps a message as a command so a closing modal can hand its result
// back to the board.
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// renderModal draws a titled dialog centered on the screen.
func renderModal(theme Theme, title, body string, modalWidth, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", max(0, modalWidth-6))))
	b.WriteString("\n\n")
	b.WriteString(body)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// hints renders "key desc" pairs for the bottom of a dialog.
func hints(theme Theme, pairs ...string) string {
	styles := theme.Styles()
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, styles.AccentText.Render(pairs[i])+" "+styles.MutedText.Render(pairs[i+1]))
	}
	return strings.Join(parts, "   ")
}
