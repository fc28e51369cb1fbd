package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const promptWidth = 52

// deliverSubmitMsg confirms a delivery without a pickup.
type deliverSubmitMsg struct {
	ID string
}

// cancelSubmitMsg removes an order after the operator said yes.
type cancelSubmitMsg struct {
	ID string
}

// deliveryPrompt asks whether the delivered items need to be picked up again.
// Choosing a pickup swaps the prompt for the pickup time form.
type deliveryPrompt struct {
	card cardView
	loc  *time.Location
}

func (p *deliveryPrompt) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch {
	case key.Matches(k, keys.Escape):
		return p, nil, true
	case key.Matches(k, keys.WithReturn):
		form, cmd := newReturnForm(p.card.ID, p.card.Address, p.loc)
		return form, cmd, false
	case key.Matches(k, keys.NoReturn):
		return p, emit(deliverSubmitMsg{ID: p.card.ID}), true
	}
	return p, nil, false
}

func (p *deliveryPrompt) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(truncate(p.card.EventName, promptWidth-6)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(truncate(p.card.Address, promptWidth-6)))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render("Do the items need to be picked up later?"))
	b.WriteString("\n\n")
	b.WriteString(hints(theme, "p", "schedule pickup", "n", "no pickup", "esc", "back"))
	return renderModal(theme, "Confirm delivery", b.String(), promptWidth, width, height)
}

// confirmPrompt is a yes/no question that emits onYes when accepted.
type confirmPrompt struct {
	title    string
	question string
	onYes    tea.Msg
}

func (p *confirmPrompt) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch {
	case key.Matches(k, keys.Yes):
		return p, emit(p.onYes), true
	case key.Matches(k, keys.No):
		return p, nil, true
	}
	return p, nil, false
}

func (p *confirmPrompt) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Render(p.question) + "\n\n" + hints(theme, "y", "yes", "n", "no")
	return renderModal(theme, p.title, body, promptWidth, width, height)
}
